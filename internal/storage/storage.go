package storage

import (
	"fmt"
	"log"

	"emote-hub-server/internal/config"
)

// Provider 是图片二进制数据的存储接口，键为 Image 行的 uuid。
// 扩展名/内容类型是元数据，不参与寻址。
type Provider interface {
	Save(uuid string, data []byte) error
	Load(uuid string) ([]byte, error)
	Delete(uuid string) error
}

var provider Provider

// Get 返回当前的存储提供者。
func Get() Provider {
	return provider
}

// SetForTest 替换存储提供者，仅供测试使用。
func SetForTest(p Provider) {
	provider = p
}

func InitStorage() {
	cfg := config.Get()
	switch cfg.Storage.Type {
	case "local", "":
		p, err := NewLocalProvider(cfg.Storage.DataDir)
		if err != nil {
			log.Fatalf("❌ 初始化本地存储失败: %v", err)
		}
		provider = p
		log.Printf("✅ 本地存储已就绪: %s", cfg.Storage.DataDir)
	default:
		log.Fatal(fmt.Sprintf("❌ 不支持的存储类型: %s", cfg.Storage.Type))
	}
}
