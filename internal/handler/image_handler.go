package handler

import (
	"log"
	"net/http"

	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/middleware"
	"emote-hub-server/internal/service"

	"github.com/gin-gonic/gin"
)

// GetImage 查询图片行（所有者或管理员）。
func GetImage(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableImage, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	image, err := service.GetImage(uuid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询图片失败"})
		return
	}
	if image == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "图片不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": image})
}

// ListImages 列出所有图片行（仅管理员）。
func ListImages(c *gin.Context) {
	if !middleware.Require(c, guard.Admin{}) {
		return
	}

	images, err := service.ListImages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询图片列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": images})
}

// DeleteImage 删除图片（所有者或管理员），blob 一并清理。
func DeleteImage(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableImage, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	deleted, err := service.DeleteImage(uuid)
	if err != nil {
		log.Printf("Delete image failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "图片不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "删除成功"})
}
