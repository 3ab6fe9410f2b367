package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 表情类型决定了展示时的默认渲染宽度。
const (
	EmoteTypeStill    = "still"
	EmoteTypeAnimated = "animated"
	EmoteTypeSticker  = "sticker"
)

type Emote struct {
	UUID       string     `json:"uuid" gorm:"primaryKey;size:36"`
	Slug       string     `json:"slug" gorm:"not null;uniqueIndex:idx_dir_slug"`
	DirUUID    string     `json:"dir_uuid" gorm:"not null;uniqueIndex:idx_dir_slug;size:36"`
	EmoteType  string     `json:"emote_type" gorm:"not null;default:still"`
	CreateTime time.Time  `json:"create_time" gorm:"autoCreateTime"`
	ModifyTime *time.Time `json:"modify_time"`

	Images []Image `json:"-" gorm:"foreignKey:EmoteUUID;references:UUID;constraint:OnDelete:CASCADE;"`
}

func (e *Emote) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	return nil
}

func ValidEmoteType(t string) bool {
	switch t {
	case EmoteTypeStill, EmoteTypeAnimated, EmoteTypeSticker:
		return true
	}
	return false
}

// DefaultRenderWidth 返回表情类型对应的默认渲染宽度。
func DefaultRenderWidth(emoteType string) int {
	if emoteType == EmoteTypeSticker {
		return 256
	}
	return 128
}
