package guard

import (
	"errors"

	"emote-hub-server/internal/db"
	"emote-hub-server/internal/model"

	"gorm.io/gorm"
)

// Requirement 表示一次操作执行前必须满足的授权要求。
// Check 只读，不产生任何副作用；返回 false 表示正常的拒绝，
// 返回 error 表示查询层面的异常，应使整个请求失败而不是当作拒绝。
type Requirement interface {
	Check(caller *model.User) (bool, error)
	Reason() string
}

// Admin 要求调用者是管理员。
type Admin struct{}

func (Admin) Check(caller *model.User) (bool, error) {
	return caller != nil && caller.Administrator, nil
}

func (Admin) Reason() string {
	return "需要管理员权限才能访问该资源"
}

// FirstRun 在首次运行模式开启时放行任意调用者（包括匿名）。
type FirstRun struct{}

func (FirstRun) Check(caller *model.User) (bool, error) {
	return FirstRunActive(), nil
}

func (FirstRun) Reason() string {
	return "首次运行模式未开启"
}

// DirPrivileged 要求调用者是指定目录的特权成员。
type DirPrivileged struct {
	DirUUID string
}

func (g DirPrivileged) Check(caller *model.User) (bool, error) {
	if caller == nil {
		return false, nil
	}
	var member model.DirMember
	err := db.DB.Where("user_uuid = ? AND dir_uuid = ?", caller.UUID, g.DirUUID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member.Privileged, nil
}

func (DirPrivileged) Reason() string {
	return "您不是该目录的特权成员，无法访问该资源"
}

// Any 按顺序逐个求值，第一个满足的要求即放行（短路 OR 组合）。
type Any []Requirement

func (a Any) Check(caller *model.User) (bool, error) {
	for _, req := range a {
		ok, err := req.Check(caller)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a Any) Reason() string {
	if len(a) == 1 {
		return a[0].Reason()
	}
	return "没有访问该资源的权限"
}
