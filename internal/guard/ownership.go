package guard

import (
	"errors"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/utils"

	"gorm.io/gorm"
)

// 所有权沿外键链传递：Image → Emote → Dir → 成员集合；Token → User。
// 任何资源的所有权判定最终都折叠到"调用者是否在目录的成员集合中"
// 或"调用者是否就是该用户"这两条终结规则上。

type Table int

const (
	TableUser Table = iota
	TableDir
	TableEmote
	TableImage
	TableToken
)

type ColumnKind int

const (
	ColumnUUID ColumnKind = iota
	ColumnUsername
	ColumnDirSlug
	ColumnEmoteSlug
)

type Column struct {
	Kind  ColumnKind
	Value string
}

func UUID(v string) Column      { return Column{Kind: ColumnUUID, Value: v} }
func Username(v string) Column  { return Column{Kind: ColumnUsername, Value: v} }
func DirSlug(v string) Column   { return Column{Kind: ColumnDirSlug, Value: v} }
func EmoteSlug(v string) Column { return Column{Kind: ColumnEmoteSlug, Value: v} }

// Owns 要求调用者沿所有权链拥有目标资源。
type Owns struct {
	Table  Table
	Column Column
}

func (g Owns) Check(caller *model.User) (bool, error) {
	if caller == nil {
		return false, nil
	}
	switch g.Table {
	case TableUser:
		return userOwnedBy(g.Column, caller)
	case TableDir:
		return dirOwnedBy(g.Column, caller)
	case TableEmote:
		return emoteOwnedBy(g.Column, caller)
	case TableImage:
		return imageOwnedBy(g.Column, caller)
	case TableToken:
		return tokenOwnedBy(g.Column, caller)
	}
	return false, nil
}

func (Owns) Reason() string {
	return "您不拥有该资源，无权访问"
}

func userOwnedBy(col Column, caller *model.User) (bool, error) {
	switch col.Kind {
	case ColumnUUID:
		return col.Value == caller.UUID, nil
	case ColumnUsername:
		var user model.User
		err := db.DB.Select("uuid").Where("username = ?", col.Value).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return user.UUID == caller.UUID, nil
	}
	// 其他列引用不适用于用户表
	return false, nil
}

func dirOwnedBy(col Column, caller *model.User) (bool, error) {
	var dirUUID string
	switch col.Kind {
	case ColumnUUID:
		dirUUID = col.Value
	case ColumnDirSlug:
		var dir model.Dir
		err := db.DB.Select("uuid").Where("slug = ?", col.Value).First(&dir).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		dirUUID = dir.UUID
	default:
		return false, nil
	}

	// 终结规则：调用者出现在目录的成员集合中即视为拥有，不要求特权位
	var member model.DirMember
	err := db.DB.Where("user_uuid = ? AND dir_uuid = ?", caller.UUID, dirUUID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func emoteOwnedBy(col Column, caller *model.User) (bool, error) {
	switch col.Kind {
	case ColumnUUID:
		var emote model.Emote
		err := db.DB.Select("dir_uuid").Where("uuid = ?", col.Value).First(&emote).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return dirOwnedBy(UUID(emote.DirUUID), caller)
	case ColumnEmoteSlug:
		// 复合 slug 固定为 dirSlug/emoteSlug 两段；
		// 所有权粒度在目录级，表情段不进一步收窄
		dirSlug, _, ok := utils.SplitEmoteSlug(col.Value)
		if !ok {
			return false, nil
		}
		return dirOwnedBy(DirSlug(dirSlug), caller)
	}
	return false, nil
}

func imageOwnedBy(col Column, caller *model.User) (bool, error) {
	if col.Kind != ColumnUUID {
		return false, nil
	}
	var image model.Image
	err := db.DB.Select("emote_uuid").Where("uuid = ?", col.Value).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return emoteOwnedBy(UUID(image.EmoteUUID), caller)
}

func tokenOwnedBy(col Column, caller *model.User) (bool, error) {
	if col.Kind != ColumnUUID {
		return false, nil
	}
	var token model.Token
	err := db.DB.Select("user_uuid").Where("uuid = ?", col.Value).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return userOwnedBy(UUID(token.UserUUID), caller)
}
