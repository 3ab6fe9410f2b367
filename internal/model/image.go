package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image 既表示原图（original=true）也表示派生缩放图。
// (emote_uuid, width, height, original) 上的唯一索引是派生图去重的闸门：
// 并发调度同一尺寸时，后插入的一方会命中唯一约束，将其视为"已在处理"。
// processing=true 表示该行的二进制数据尚未落盘，不可对外提供。
type Image struct {
	UUID        string     `json:"uuid" gorm:"primaryKey;size:36"`
	EmoteUUID   string     `json:"emote_uuid" gorm:"not null;uniqueIndex:idx_emote_dims;size:36"`
	Width       int        `json:"width" gorm:"not null;uniqueIndex:idx_emote_dims"`
	Height      int        `json:"height" gorm:"not null;uniqueIndex:idx_emote_dims"`
	ContentType string     `json:"content_type" gorm:"not null"`
	Original    bool       `json:"original" gorm:"not null;uniqueIndex:idx_emote_dims"`
	Processing  bool       `json:"processing" gorm:"not null"`
	CreateTime  time.Time  `json:"create_time" gorm:"autoCreateTime"`
	ModifyTime  *time.Time `json:"modify_time"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.New().String()
	}
	return nil
}
