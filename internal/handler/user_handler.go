package handler

import (
	"log"
	"net/http"
	"strings"

	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/middleware"
	"emote-hub-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateUser 创建用户。首次运行模式或管理员可调用；
// 首次运行模式下只能创建管理员（service 层二次把关）。
func CreateUser(c *gin.Context) {
	if !middleware.Require(c, guard.Any{guard.FirstRun{}, guard.Admin{}}) {
		return
	}

	var req struct {
		Username      string `json:"username" binding:"required"`
		Administrator bool   `json:"administrator"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	user, err := service.CreateUser(req.Username, req.Administrator)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "用户名") || strings.Contains(errStr, "首次运行") {
			c.JSON(http.StatusBadRequest, gin.H{"error": errStr})
		} else {
			log.Printf("Create user failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建用户失败，请稍后重试"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser 查询用户，支持 ?expand=tokens,dirs 展开关联。
func GetUser(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableUser, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	user, err := service.GetUser(uuid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户失败"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}

	resp := gin.H{"user": user}
	expand := c.Query("expand")
	if strings.Contains(expand, "tokens") {
		tokens, err := service.UserTokens(user.UUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询令牌失败"})
			return
		}
		resp["tokens"] = tokens
	}
	if strings.Contains(expand, "dirs") {
		dirs, err := service.UserDirs(user.UUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询目录失败"})
			return
		}
		resp["dirs"] = dirs
	}
	c.JSON(http.StatusOK, resp)
}

// GetUserByUsername 按用户名查询用户。
func GetUserByUsername(c *gin.Context) {
	username := c.Param("username")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableUser, Column: guard.Username(username)},
		guard.Admin{},
	}) {
		return
	}

	user, err := service.GetUserByUsername(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户失败"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers 列出所有用户（仅管理员）。
func ListUsers(c *gin.Context) {
	if !middleware.Require(c, guard.Admin{}) {
		return
	}

	users, err := service.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": users})
}

// DeleteUser 删除用户（本人或管理员）。
func DeleteUser(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableUser, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	deleted, err := service.DeleteUser(uuid)
	if err != nil {
		log.Printf("Delete user failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "删除成功"})
}
