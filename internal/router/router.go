package router

import (
	"emote-hub-server/internal/handler"
	"emote-hub-server/internal/middleware"

	"github.com/gin-gonic/gin"
)

func InitRouter(r *gin.Engine) {
	// 注册全局安全标头中间件
	r.Use(middleware.SecurityHeaders())

	api := r.Group("/api")
	api.Use(middleware.BodyLimitMiddleware())
	api.Use(middleware.RateLimitMiddleware())
	// 所有 API 请求先解析调用者身份；匿名放行，授权在各操作内判定
	api.Use(middleware.TokenAuth())

	registerUserRoutes(api)
	registerTokenRoutes(api)
	registerDirRoutes(api)
	registerEmoteRoutes(api)
	registerImageRoutes(api)

	// 公开的表情展示路径
	r.GET("/:dirSlug/:emoteSlug", handler.DisplayEmote)
	r.GET("/:dirSlug/:emoteSlug/:options", handler.DisplayEmote)
}

func registerUserRoutes(api *gin.RouterGroup) {
	api.POST("/users", handler.CreateUser)
	api.GET("/users", handler.ListUsers)
	api.GET("/users/by-name/:username", handler.GetUserByUsername)
	api.GET("/users/:uuid", handler.GetUser)
	api.DELETE("/users/:uuid", handler.DeleteUser)
}

func registerTokenRoutes(api *gin.RouterGroup) {
	api.POST("/tokens", handler.CreateToken)
	api.GET("/tokens", handler.ListTokens)
	api.GET("/tokens/:uuid", handler.GetToken)
	api.DELETE("/tokens/:uuid", handler.DeleteToken)
}

func registerDirRoutes(api *gin.RouterGroup) {
	api.POST("/dirs", handler.CreateDir)
	api.GET("/dirs", handler.ListDirs)
	api.GET("/dirs/by-slug/:slug", handler.GetDirBySlug)
	api.GET("/dirs/:uuid", handler.GetDir)
	api.DELETE("/dirs/:uuid", handler.DeleteDir)
	api.POST("/dirs/:uuid/members", handler.AddDirMember)
	api.DELETE("/dirs/:uuid/members/:userUUID", handler.RemoveDirMember)
	api.GET("/dirs/:uuid/privileged/:userUUID", handler.DirMemberPrivileged)
}

func registerEmoteRoutes(api *gin.RouterGroup) {
	api.POST("/emotes", middleware.UploadBodyLimitMiddleware(), handler.UploadEmote)
	api.GET("/emotes", handler.ListEmotes)
	api.GET("/emotes/by-slug/*slug", handler.GetEmoteBySlug)
	api.GET("/emotes/:uuid", handler.GetEmote)
	api.DELETE("/emotes/:uuid", handler.DeleteEmote)
	api.POST("/emotes/:uuid/resize", handler.DispatchResize)
}

func registerImageRoutes(api *gin.RouterGroup) {
	api.GET("/images", handler.ListImages)
	api.GET("/images/:uuid", handler.GetImage)
	api.DELETE("/images/:uuid", handler.DeleteImage)
}
