package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Dir struct {
	UUID       string     `json:"uuid" gorm:"primaryKey;size:36"`
	Slug       string     `json:"slug" gorm:"unique;not null"`
	CreateTime time.Time  `json:"create_time" gorm:"autoCreateTime"`
	ModifyTime *time.Time `json:"modify_time"`

	Emotes []Emote `json:"-" gorm:"foreignKey:DirUUID;references:UUID;constraint:OnDelete:CASCADE;"`
}

func (d *Dir) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == "" {
		d.UUID = uuid.New().String()
	}
	return nil
}

// DirMember 是用户与目录的多对多关联表，携带 privileged 标记。
// 目录级别的所有权就在这张表上判定。
type DirMember struct {
	UserUUID   string `json:"user_uuid" gorm:"primaryKey;size:36"`
	DirUUID    string `json:"dir_uuid" gorm:"primaryKey;size:36"`
	Privileged bool   `json:"privileged" gorm:"not null"`
}

func (DirMember) TableName() string {
	return "dir_members"
}
