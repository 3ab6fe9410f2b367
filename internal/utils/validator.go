package utils

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateUsername checks if the username meets the requirements.
func ValidateUsername(username string) (bool, string) {
	if username == "" {
		return false, "用户名不能为空"
	}

	// 允许英文大小写、数字和下划线
	if matched, _ := regexp.MatchString(`^[a-zA-Z0-9_]+$`, username); !matched {
		return false, "用户名只能包含英文大小写、数字和下划线"
	}

	// 不能是纯数字
	if matched, _ := regexp.MatchString(`^[0-9]+$`, username); matched {
		return false, "用户名不能为纯数字"
	}

	return true, ""
}

// ValidateSlug 校验目录或表情的 slug。
// slug 会出现在展示 URL 的路径段中，因此禁止斜杠与大写。
func ValidateSlug(slug string) (bool, string) {
	if slug == "" {
		return false, "slug 不能为空"
	}
	if len(slug) > 64 {
		return false, "slug 最长 64 个字符"
	}
	if !slugPattern.MatchString(slug) {
		return false, "slug 只能包含小写字母、数字、连字符和下划线"
	}
	return true, ""
}

// SplitEmoteSlug 将复合 slug（dir-slug/emote-slug）拆成两段。
// 复合 slug 必须恰好由 `/` 连接的两段组成。
func SplitEmoteSlug(compound string) (string, string, bool) {
	parts := strings.Split(compound, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
