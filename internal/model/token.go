package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token 只保存密钥的 bcrypt 哈希，明文密钥仅在签发时返回一次。
type Token struct {
	UUID        string     `json:"uuid" gorm:"primaryKey;size:36"`
	UserUUID    string     `json:"user_uuid" gorm:"not null;index;size:36"`
	Description string     `json:"description" gorm:"not null"`
	TokenHash   string     `json:"-" gorm:"not null"`
	CreateTime  time.Time  `json:"create_time" gorm:"autoCreateTime"`
	ModifyTime  *time.Time `json:"modify_time"`
}

func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.New().String()
	}
	return nil
}
