package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emote-hub-server/internal/config"
	"emote-hub-server/internal/db"
	"emote-hub-server/internal/guard"
	"emote-hub-server/internal/router"
	"emote-hub-server/internal/service"
	"emote-hub-server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configDir := flag.String("config", "config", "配置文件目录")
	flag.Parse()

	// .env 便于本地开发覆盖环境变量，不存在则忽略
	_ = godotenv.Load()

	config.InitConfig(*configDir)
	db.InitDB()
	storage.InitStorage()

	// 启动时统计管理员令牌，决定是否进入首次运行模式
	if err := guard.InitFirstRun(); err != nil {
		log.Fatal("❌ 初始化首次运行模式失败: ", err)
	}

	gin.SetMode(config.Get().Server.Mode)

	r := gin.Default()
	router.InitRouter(r)

	srv := &http.Server{
		Addr:    ":" + config.Get().Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("✅ 服务启动，监听端口 %s", config.Get().Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ 服务启动失败: ", err)
		}
	}()

	// 优雅关停：等待在飞的派生图生成任务结算
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ 服务关闭超时: %v", err)
	}

	service.WaitBackgroundJobs()
	_ = service.CloseRedisClient()
	log.Println("✅ 服务已退出")
}
