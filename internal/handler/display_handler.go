package handler

import (
	"log"
	"net/http"
	"strings"

	"emote-hub-server/internal/model"
	"emote-hub-server/internal/service"
	"emote-hub-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// DisplayEmote 公开的表情展示端点：
// GET /:dirSlug/:emoteSlug[.gif][/:options]
//
// 表情段末尾的 ".gif" 在查库前剥掉，纯粹是兼容要求 URL
// 长得像文件名的客户端。无 options 时用表情类型的默认渲染宽度。
func DisplayEmote(c *gin.Context) {
	dirSlug := c.Param("dirSlug")
	emoteSlug := strings.TrimSuffix(c.Param("emoteSlug"), ".gif")

	emote, err := service.GetEmoteBySlug(dirSlug + "/" + emoteSlug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "查询表情失败"})
		return
	}
	if emote == nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "表情不存在"})
		return
	}

	width := model.DefaultRenderWidth(emote.EmoteType)
	if options := c.Param("options"); options != "" {
		opts, err := utils.ParseSizeOptions(options)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
			return
		}
		if opts.Height > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "按高度缩放暂不支持"})
			return
		}
		if opts.Width > 0 {
			width = opts.Width
		}
		if opts.Multiplier > 0 {
			width *= opts.Multiplier
		}
	}

	result, err := service.GetOrScheduleDerivative(emote.UUID, width, 0)
	if err != nil {
		log.Printf("Display emote failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "获取图片失败"})
		return
	}

	switch result.Status {
	case service.DerivativeReady:
		c.Data(http.StatusOK, result.ContentType, result.Data)
	case service.DerivativeScheduled:
		c.JSON(http.StatusNotFound, gin.H{"msg": "缩放任务已派发，请稍后重试"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"msg": "表情没有可用的原图"})
	}
}
