package resizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"

	"github.com/disintegration/imaging"
)

// 基于宽度的等比缩放。按高度缩放尚未实现，请求方应收到明确的拒绝而不是被静默忽略。
var ErrHeightResizeUnsupported = errors.New("按高度缩放暂不支持")

var ErrUnsupportedContentType = errors.New("不支持的图片类型")

// DetectContentType 嗅探图片内容类型，仅接受受支持的类型。
func DetectContentType(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	switch ct {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return ct, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, ct)
}

// Dimensions 解码图片并返回宽高。
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("解码图片尺寸失败: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Resize 按目标宽度等比缩放图片，返回输出字节与实际输出宽高。
// height > 0 时返回 ErrHeightResizeUnsupported；multiplier > 0 时
// 在（已有或默认的）宽度基础上乘以倍率。
func Resize(data []byte, contentType string, width, height, multiplier int) ([]byte, int, int, error) {
	if height > 0 {
		return nil, 0, 0, ErrHeightResizeUnsupported
	}
	if width <= 0 {
		return nil, 0, 0, errors.New("目标宽度必须为正数")
	}
	if multiplier > 0 {
		width *= multiplier
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("解码图片失败: %w", err)
	}

	// 高度传 0 表示按宽度等比缩放
	out := imaging.Resize(src, width, 0, imaging.Lanczos)
	bounds := out.Bounds()

	var buf bytes.Buffer
	switch contentType {
	case "image/png", "image/webp":
		// webp 编码不在支持范围内，派生图统一落为 png
		err = png.Encode(&buf, out)
	case "image/jpeg":
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90})
	case "image/gif":
		err = gif.Encode(&buf, out, nil)
	default:
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("编码缩放结果失败: %w", err)
	}

	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// OutContentType 返回派生图最终的内容类型。
func OutContentType(inContentType string) string {
	switch inContentType {
	case "image/jpeg":
		return "image/jpeg"
	case "image/gif":
		return "image/gif"
	default:
		// png/webp 的派生图统一为 png
		return "image/png"
	}
}
