package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKeyError 判断错误是否为唯一约束冲突。
// GORM 在部分方言下会翻译为 ErrDuplicatedKey，SQLite 等则只能按报错文本识别。
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
