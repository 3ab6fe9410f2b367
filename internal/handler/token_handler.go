package handler

import (
	"log"
	"net/http"

	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/middleware"
	"emote-hub-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateToken 为指定用户签发令牌。
// 首次运行模式下匿名也可调用（这是引导第一个管理员令牌的唯一通道），
// 平时只允许本人或管理员。序列化令牌串只在响应中出现这一次。
func CreateToken(c *gin.Context) {
	var req struct {
		UserUUID    string `json:"user_uuid" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if !middleware.Require(c, guard.Any{
		guard.FirstRun{},
		guard.Owns{Table: guard.TableUser, Column: guard.UUID(req.UserUUID)},
		guard.Admin{},
	}) {
		return
	}

	serialized, err := service.MintToken(req.UserUUID, req.Description)
	if err != nil {
		errStr := err.Error()
		if errStr == "目标用户不存在" {
			c.JSON(http.StatusNotFound, gin.H{"error": errStr})
		} else {
			log.Printf("Mint token failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "签发令牌失败，请稍后重试"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": serialized})
}

// GetToken 查询令牌（本人或管理员）。
func GetToken(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableToken, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	token, err := service.GetToken(uuid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询令牌失败"})
		return
	}
	if token == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "令牌不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListTokens 列出所有令牌（仅管理员）。
func ListTokens(c *gin.Context) {
	if !middleware.Require(c, guard.Admin{}) {
		return
	}

	tokens, err := service.ListTokens()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询令牌列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": tokens})
}

// DeleteToken 删除令牌（本人或管理员）。
func DeleteToken(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableToken, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	deleted, err := service.DeleteToken(uuid)
	if err != nil {
		log.Printf("Delete token failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "令牌不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "删除成功"})
}
