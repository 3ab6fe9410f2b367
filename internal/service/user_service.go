package service

import (
	"errors"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/utils"

	"gorm.io/gorm"
)

// CreateUser 创建用户。
// 首次运行模式下禁止创建非管理员用户（该模式存在的意义就是引导出第一个管理员）。
func CreateUser(username string, administrator bool) (*model.User, error) {
	if ok, msg := utils.ValidateUsername(username); !ok {
		return nil, errors.New(msg)
	}

	if !administrator && guard.FirstRunActive() {
		return nil, errors.New("首次运行模式下不能创建非管理员用户")
	}

	user := model.User{
		Username:      username,
		Administrator: administrator,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, errors.New("用户名已被占用")
		}
		return nil, err
	}
	return &user, nil
}

// GetUser 按 uuid 查询用户；不存在时返回 nil。
func GetUser(uuid string) (*model.User, error) {
	var user model.User
	err := db.DB.Where("uuid = ?", uuid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 按用户名查询用户；不存在时返回 nil。
func GetUserByUsername(username string) (*model.User, error) {
	var user model.User
	err := db.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers 返回所有用户。
func ListUsers() ([]model.User, error) {
	var users []model.User
	if err := db.DB.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser 删除用户，级联清理其令牌和目录成员关系。
func DeleteUser(uuid string) (bool, error) {
	var affected int64
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_uuid = ?", uuid).Delete(&model.Token{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_uuid = ?", uuid).Delete(&model.DirMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("uuid = ?", uuid).Delete(&model.User{})
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

// UserTokens 返回用户持有的令牌。
func UserTokens(userUUID string) ([]model.Token, error) {
	var tokens []model.Token
	if err := db.DB.Where("user_uuid = ?", userUUID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// UserDirs 返回用户所属的目录。
func UserDirs(userUUID string) ([]model.Dir, error) {
	var dirs []model.Dir
	err := db.DB.
		Joins("INNER JOIN dir_members ON dir_members.dir_uuid = dirs.uuid").
		Where("dir_members.user_uuid = ?", userUUID).
		Find(&dirs).Error
	if err != nil {
		return nil, err
	}
	return dirs, nil
}
