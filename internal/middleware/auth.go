package middleware

import (
	"errors"
	"net/http"

	"emote-hub-server/internal/consts"
	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/model"
	"emote-hub-server/internal/service"

	"github.com/gin-gonic/gin"
)

// TokenAuth 解析 Token 请求头并把调用者身份放入上下文。
// 没有携带令牌的请求按匿名放行——是否允许匿名由各操作的授权要求决定
// （首次运行模式下匿名请求必须能走到创建用户/令牌的操作）。
// 携带了令牌但解析失败的请求直接拒绝。
func TokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader(consts.TokenHeader)
		if bearer == "" {
			c.Next()
			return
		}

		user, err := service.ResolveBearer(bearer)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "令牌无效或已失效"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "令牌校验失败，请稍后重试"})
			}
			c.Abort()
			return
		}

		c.Set(consts.CtxUser, user)
		c.Next()
	}
}

// CallerFrom 取出中间件解析的调用者；匿名请求返回 nil。
func CallerFrom(c *gin.Context) *model.User {
	val, exists := c.Get(consts.CtxUser)
	if !exists {
		return nil
	}
	user, ok := val.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// Require 对当前请求求值一个授权要求，不满足时写出拒绝响应并返回 false。
// 查询异常与拒绝区分开：拒绝是 403，查询异常是 500。
func Require(c *gin.Context, req guard.Requirement) bool {
	caller := CallerFrom(c)
	ok, err := req.Check(caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "授权检查失败，请稍后重试"})
		c.Abort()
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": req.Reason()})
		c.Abort()
		return false
	}
	return true
}
