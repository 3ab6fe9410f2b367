package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	UUID          string     `json:"uuid" gorm:"primaryKey;size:36"`
	Username      string     `json:"username" gorm:"unique;not null"`
	Administrator bool       `json:"administrator" gorm:"not null"`
	CreateTime    time.Time  `json:"create_time" gorm:"autoCreateTime"`
	ModifyTime    *time.Time `json:"modify_time"`

	Tokens []Token `json:"-" gorm:"foreignKey:UserUUID;references:UUID;constraint:OnDelete:CASCADE;"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.New().String()
	}
	return nil
}
