package handler

import (
	"io"
	"log"
	"net/http"
	"strings"

	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/middleware"
	"emote-hub-server/internal/resizer"
	"emote-hub-server/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadEmote 上传表情（multipart: dir_uuid, slug, emote_type, file）。
func UploadEmote(c *gin.Context) {
	dirUUID := c.PostForm("dir_uuid")
	slug := c.PostForm("slug")
	emoteType := c.PostForm("emote_type")
	if dirUUID == "" || slug == "" || emoteType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableDir, Column: guard.UUID(dirUUID)},
		guard.Admin{},
	}) {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请选择文件"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无法读取上传文件"})
		return
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取文件内容失败"})
		return
	}

	emote, err := service.UploadEmote(dirUUID, slug, emoteType, data)
	if err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "不支持的图片类型"),
			strings.Contains(errStr, "slug"),
			strings.Contains(errStr, "表情类型"),
			strings.Contains(errStr, "同名表情"),
			strings.Contains(errStr, "解码"):
			c.JSON(http.StatusBadRequest, gin.H{"error": errStr})
		case errStr == "目录不存在":
			c.JSON(http.StatusNotFound, gin.H{"error": errStr})
		default:
			log.Printf("Upload emote failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "上传失败，请稍后重试"})
		}
		return
	}

	c.JSON(http.StatusOK, emote)
}

// GetEmote 查询表情，支持 ?expand=images。
func GetEmote(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableEmote, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	emote, err := service.GetEmote(uuid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询表情失败"})
		return
	}
	if emote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "表情不存在"})
		return
	}

	resp := gin.H{"emote": emote}
	if strings.Contains(c.Query("expand"), "images") {
		images, err := service.EmoteImages(emote.UUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询图片失败"})
			return
		}
		resp["images"] = images
	}
	c.JSON(http.StatusOK, resp)
}

// GetEmoteBySlug 按复合 slug 查询表情（路径形如 /api/emotes/by-slug/memes/wave）。
func GetEmoteBySlug(c *gin.Context) {
	compound := strings.TrimPrefix(c.Param("slug"), "/")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableEmote, Column: guard.EmoteSlug(compound)},
		guard.Admin{},
	}) {
		return
	}

	emote, err := service.GetEmoteBySlug(compound)
	if err != nil {
		if strings.Contains(err.Error(), "复合 slug") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询表情失败"})
		return
	}
	if emote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "表情不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emote": emote})
}

// ListEmotes 列出所有表情（仅管理员）。
func ListEmotes(c *gin.Context) {
	if !middleware.Require(c, guard.Admin{}) {
		return
	}

	emotes, err := service.ListEmotes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询表情列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": emotes})
}

// DeleteEmote 删除表情及其全部图片（所有者或管理员）。
func DeleteEmote(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableEmote, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	deleted, err := service.DeleteEmote(uuid)
	if err != nil {
		log.Printf("Delete emote failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "表情不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "删除成功"})
}

// DispatchResize 手动派发一次派生图生成。
func DispatchResize(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableEmote, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	var req struct {
		Width  int `json:"width" binding:"required"`
		Height int `json:"height"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	if req.Height > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": resizer.ErrHeightResizeUnsupported.Error()})
		return
	}

	result, err := service.GetOrScheduleDerivative(uuid, req.Width, 0)
	if err != nil {
		log.Printf("Dispatch resize failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "派发缩放任务失败"})
		return
	}

	switch result.Status {
	case service.DerivativeReady:
		c.JSON(http.StatusOK, gin.H{"msg": "派生图已存在"})
	case service.DerivativeScheduled:
		c.JSON(http.StatusOK, gin.H{"msg": "缩放任务已派发"})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "表情没有原图"})
	}
}
