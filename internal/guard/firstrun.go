package guard

import (
	"log"
	"sync"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"
)

// 首次运行门：进程级布尔标志，在第一个管理员令牌铸造前放宽认证。
// 生命周期为 进程启动 → 清除一次 → 进程结束前恒为 false，永不回转。
var (
	firstRunMu     sync.RWMutex
	firstRunActive bool
)

// InitFirstRun 启动时统计"持有至少一个令牌的管理员"数量，
// 为零则开启首次运行模式。
func InitFirstRun() error {
	var count int64
	err := db.DB.Model(&model.Token{}).
		Joins("INNER JOIN users ON users.uuid = tokens.user_uuid").
		Where("users.administrator = ?", true).
		Count(&count).Error
	if err != nil {
		return err
	}

	firstRunMu.Lock()
	firstRunActive = count < 1
	firstRunMu.Unlock()

	if count < 1 {
		log.Println("⚠️  数据库中没有管理员令牌，已开启首次运行模式")
	} else {
		log.Println("✅ 已存在管理员令牌，首次运行模式关闭")
	}
	return nil
}

// FirstRunActive 返回首次运行门当前是否开启。
func FirstRunActive() bool {
	firstRunMu.RLock()
	defer firstRunMu.RUnlock()
	return firstRunActive
}

// ClearFirstRun 关闭首次运行门，返回调用前门是否开启。
// 读取-清除在同一把锁内完成，并发铸造令牌时只有一方观察到 true。
func ClearFirstRun() bool {
	firstRunMu.Lock()
	defer firstRunMu.Unlock()
	wasActive := firstRunActive
	firstRunActive = false
	return wasActive
}

// SetFirstRunForTest 直接设置门状态，仅供测试使用。
func SetFirstRunForTest(active bool) {
	firstRunMu.Lock()
	firstRunActive = active
	firstRunMu.Unlock()
}
