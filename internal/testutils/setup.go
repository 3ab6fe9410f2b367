package testutils

import (
	"fmt"
	"sync/atomic"
	"testing"

	"emote-hub-server/internal/config"
	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// SetupConfig 注入测试用配置快照并在测试结束后还原。
// 缩放相关默认值必须非零，否则占位行会被立刻当作卡死回收。
func SetupConfig(t *testing.T) {
	t.Helper()
	prev := config.Get()
	config.StoreForTest(config.Config{
		Resize: config.ResizeConfig{
			StandardWidths:    []int{48, 128},
			StaleAfterMinutes: 10,
		},
		Upload: config.UploadConfig{MaxSizeMB: 10},
	})
	t.Cleanup(func() { config.StoreForTest(prev) })
}

var testDBSeq int64

// SetupDB initializes a unique in-memory SQLite database for testing,
// sets the global db.DB, and performs auto-migration.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	seq := atomic.AddInt64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:eht_%d?mode=memory&cache=shared", seq)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	prevDB := db.DB
	t.Cleanup(func() {
		if prevDB != nil && db.DB == gdb {
			db.DB = prevDB
		}
		_ = sqlDB.Close()
	})

	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Token{},
		&model.Dir{},
		&model.DirMember{},
		&model.Emote{},
		&model.Image{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	db.DB = gdb
	return gdb
}
