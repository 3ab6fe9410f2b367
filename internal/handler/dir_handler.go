package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/middleware"
	"emote-hub-server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateDir 创建目录，创建者自动成为唯一的特权成员。
func CreateDir(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "需要认证才能访问"})
		return
	}

	var req struct {
		Slug string `json:"slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	dir, err := service.CreateDir(req.Slug, caller.UUID)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "slug") {
			c.JSON(http.StatusBadRequest, gin.H{"error": errStr})
		} else {
			log.Printf("Create dir failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建目录失败，请稍后重试"})
		}
		return
	}

	c.JSON(http.StatusOK, dir)
}

// GetDir 查询目录，支持 ?expand=users,emotes 展开关联。
func GetDir(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableDir, Column: guard.UUID(uuid)},
		guard.Admin{},
	}) {
		return
	}

	dir, err := service.GetDir(uuid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询目录失败"})
		return
	}
	if dir == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "目录不存在"})
		return
	}

	resp := gin.H{"dir": dir}
	expand := c.Query("expand")
	if strings.Contains(expand, "users") {
		users, err := service.DirUsers(dir.UUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询成员失败"})
			return
		}
		resp["users"] = users
	}
	if strings.Contains(expand, "emotes") {
		emotes, err := service.DirEmotes(dir.UUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询表情失败"})
			return
		}
		resp["emotes"] = emotes
	}
	c.JSON(http.StatusOK, resp)
}

// GetDirBySlug 按 slug 查询目录。
func GetDirBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableDir, Column: guard.DirSlug(slug)},
		guard.Admin{},
	}) {
		return
	}

	dir, err := service.GetDirBySlug(slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询目录失败"})
		return
	}
	if dir == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "目录不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dir": dir})
}

// ListDirs 列出所有目录（仅管理员）。
func ListDirs(c *gin.Context) {
	if !middleware.Require(c, guard.Admin{}) {
		return
	}

	dirs, err := service.ListDirs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询目录列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": dirs})
}

// DeleteDir 删除目录。特权成员或管理员可发起；
// "仅剩一名成员且是本人"的最终判定在 service 层完成。
func DeleteDir(c *gin.Context) {
	uuid := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.DirPrivileged{DirUUID: uuid},
		guard.Admin{},
	}) {
		return
	}

	deleted, err := service.DeleteDir(uuid, middleware.CallerFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrDirHasOtherMembers) || errors.Is(err, service.ErrDirNotSoleOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Delete dir failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "目录不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "删除成功"})
}

// AddDirMember 把用户加入目录（特权成员或管理员）。
func AddDirMember(c *gin.Context) {
	dirUUID := c.Param("uuid")
	if !middleware.Require(c, guard.Any{
		guard.DirPrivileged{DirUUID: dirUUID},
		guard.Admin{},
	}) {
		return
	}

	var req struct {
		UserUUID   string `json:"user_uuid" binding:"required"`
		Privileged bool   `json:"privileged"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if err := service.AddUserToDir(req.UserUUID, dirUUID, req.Privileged); err != nil {
		errStr := err.Error()
		if errStr == "目标用户不存在" {
			c.JSON(http.StatusNotFound, gin.H{"error": errStr})
		} else if errStr == "该用户已是目录成员" {
			c.JSON(http.StatusBadRequest, gin.H{"error": errStr})
		} else {
			log.Printf("Add dir member failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "添加成员失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "添加成功"})
}

// RemoveDirMember 把用户移出目录（特权成员或管理员）。
func RemoveDirMember(c *gin.Context) {
	dirUUID := c.Param("uuid")
	userUUID := c.Param("userUUID")
	if !middleware.Require(c, guard.Any{
		guard.DirPrivileged{DirUUID: dirUUID},
		guard.Admin{},
	}) {
		return
	}

	removed, err := service.RemoveUserFromDir(userUUID, dirUUID)
	if err != nil {
		if err.Error() == "不能移除目录的最后一名成员" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Remove dir member failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "移除成员失败"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "该用户不是目录成员"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "移除成功"})
}

// DirMemberPrivileged 查询用户在目录中的特权位。
func DirMemberPrivileged(c *gin.Context) {
	dirUUID := c.Param("uuid")
	userUUID := c.Param("userUUID")
	if !middleware.Require(c, guard.Any{
		guard.Owns{Table: guard.TableDir, Column: guard.UUID(dirUUID)},
		guard.Admin{},
	}) {
		return
	}

	privileged, err := service.UserPrivilegedForDir(userUUID, dirUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"privileged": privileged})
}
