package service

import (
	"errors"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/utils"

	"gorm.io/gorm"
)

// ErrDirNotSoleOwner 对应"仅剩一名成员且是调用者本人时方可删除"规则的两种失败。
var (
	ErrDirHasOtherMembers = errors.New("目录仍有多名成员，只有剩最后一名成员时才能删除")
	ErrDirNotSoleOwner    = errors.New("您不是该目录仅剩的成员，也不是管理员，无权删除")
)

// CreateDir 创建目录并把创建者设为唯一的特权成员。
// 两步写在同一事务内，保证"目录任何时刻至少有一名成员"的不变量。
func CreateDir(slug, creatorUUID string) (*model.Dir, error) {
	if ok, msg := utils.ValidateSlug(slug); !ok {
		return nil, errors.New(msg)
	}

	dir := model.Dir{Slug: slug}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dir).Error; err != nil {
			return err
		}
		member := model.DirMember{
			UserUUID:   creatorUUID,
			DirUUID:    dir.UUID,
			Privileged: true,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, errors.New("目录 slug 已被占用")
		}
		return nil, err
	}
	return &dir, nil
}

// GetDir 按 uuid 查询目录；不存在时返回 nil。
func GetDir(uuid string) (*model.Dir, error) {
	var dir model.Dir
	err := db.DB.Where("uuid = ?", uuid).First(&dir).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dir, nil
}

// GetDirBySlug 按 slug 查询目录；不存在时返回 nil。
func GetDirBySlug(slug string) (*model.Dir, error) {
	var dir model.Dir
	err := db.DB.Where("slug = ?", slug).First(&dir).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dir, nil
}

// ListDirs 返回所有目录。
func ListDirs() ([]model.Dir, error) {
	var dirs []model.Dir
	if err := db.DB.Find(&dirs).Error; err != nil {
		return nil, err
	}
	return dirs, nil
}

// DirUsers 返回目录的成员用户。
func DirUsers(dirUUID string) ([]model.User, error) {
	var users []model.User
	err := db.DB.
		Joins("INNER JOIN dir_members ON dir_members.user_uuid = users.uuid").
		Where("dir_members.dir_uuid = ?", dirUUID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// DirEmotes 返回目录下的表情。
func DirEmotes(dirUUID string) ([]model.Emote, error) {
	var emotes []model.Emote
	if err := db.DB.Where("dir_uuid = ?", dirUUID).Find(&emotes).Error; err != nil {
		return nil, err
	}
	return emotes, nil
}

// AddUserToDir 把用户加入目录成员集合。
func AddUserToDir(userUUID, dirUUID string, privileged bool) error {
	var user model.User
	if err := db.DB.Select("uuid").Where("uuid = ?", userUUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("目标用户不存在")
		}
		return err
	}

	member := model.DirMember{
		UserUUID:   userUUID,
		DirUUID:    dirUUID,
		Privileged: privileged,
	}
	if err := db.DB.Create(&member).Error; err != nil {
		if isDuplicateKeyError(err) {
			return errors.New("该用户已是目录成员")
		}
		return err
	}
	return nil
}

// RemoveUserFromDir 把用户移出目录，返回是否确有移除。
// 不允许移走最后一名成员（目录必须始终至少有一名成员，除非正在删除目录本身）。
func RemoveUserFromDir(userUUID, dirUUID string) (bool, error) {
	var affected int64
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.DirMember{}).Where("dir_uuid = ?", dirUUID).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return errors.New("不能移除目录的最后一名成员")
		}
		result := tx.Where("user_uuid = ? AND dir_uuid = ?", userUUID, dirUUID).
			Delete(&model.DirMember{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UserPrivilegedForDir 查询用户在目录中的特权位；非成员返回 false。
func UserPrivilegedForDir(userUUID, dirUUID string) (bool, error) {
	var member model.DirMember
	err := db.DB.Where("user_uuid = ? AND dir_uuid = ?", userUUID, dirUUID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member.Privileged, nil
}

// DeleteDir 删除目录。
// 仅当成员恰好剩一人且该成员就是调用者（或调用者是管理员）时允许；
// 先清理所有表情的图片 blob 与行，再删成员关系，最后删目录行。
func DeleteDir(uuid string, caller *model.User) (bool, error) {
	var members []model.DirMember
	if err := db.DB.Where("dir_uuid = ?", uuid).Find(&members).Error; err != nil {
		return false, err
	}
	if len(members) == 0 {
		// 没有成员说明目录不存在（或已删除）
		return false, nil
	}
	if len(members) != 1 {
		return false, ErrDirHasOtherMembers
	}
	if !caller.Administrator && members[0].UserUUID != caller.UUID {
		return false, ErrDirNotSoleOwner
	}

	// 行级联删不掉 blob，必须先逐个表情清理存储
	emotes, err := DirEmotes(uuid)
	if err != nil {
		return false, err
	}
	for _, emote := range emotes {
		if err := deleteEmoteImages(emote.UUID); err != nil {
			return false, err
		}
	}

	var affected int64
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dir_uuid = ?", uuid).Delete(&model.Emote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("dir_uuid = ?", uuid).Delete(&model.DirMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("uuid = ?", uuid).Delete(&model.Dir{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
