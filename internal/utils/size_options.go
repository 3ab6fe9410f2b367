package utils

import (
	"errors"
	"strconv"
	"strings"
)

// SizeOptions 是图片展示路径末段解析出的尺寸参数。
// 支持四种形式：`width`、`widthxheight`、`xmultiplier`、`widthxheightxmultiplier`。
type SizeOptions struct {
	Width      int
	Height     int
	Multiplier int
}

// ParseSizeOptions 解析展示路径的 options 段。
func ParseSizeOptions(options string) (*SizeOptions, error) {
	options = strings.TrimSpace(options)
	if options == "" {
		return nil, errors.New("尺寸参数为空")
	}

	// 形式 `x2`：只有倍率，宽度用表情类型的默认值
	if strings.HasPrefix(options, "x") {
		m, err := strconv.Atoi(options[1:])
		if err != nil || m <= 0 {
			return nil, errors.New("倍率参数无效")
		}
		return &SizeOptions{Multiplier: m}, nil
	}

	parts := strings.Split(options, "x")
	if len(parts) > 3 {
		return nil, errors.New("尺寸参数段数过多")
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, errors.New("尺寸参数必须为正整数")
		}
		nums[i] = n
	}

	opts := &SizeOptions{Width: nums[0]}
	if len(nums) > 1 {
		opts.Height = nums[1]
	}
	if len(nums) > 2 {
		opts.Multiplier = nums[2]
	}
	return opts, nil
}
