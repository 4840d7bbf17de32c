package main

import (
	"net/http"
	"time"

	"fedinbox/config"
	"fedinbox/internal/inbox"
	"fedinbox/internal/middleware"
	"fedinbox/internal/models"
	"fedinbox/internal/svc"
	"fedinbox/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	utils.InitLogger(cfg.AppEnv)

	ctx := svc.NewServiceContext(cfg)
	defer ctx.Close()

	// 迁移所有模型
	err = ctx.DB.AutoMigrate(
		&models.Account{},
		&models.Status{},
		&models.Favourite{},
		&models.Reaction{},
		&models.CustomEmoji{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.Block{},
		&models.Tombstone{},
	)
	if err != nil {
		panic("failed to migrate database: " + err.Error())
	}

	// 启动活动处理 worker
	ctx.Consumer.Start()

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		utils.Success(c, gin.H{"status": "ok"})
	})

	// 收件箱：验签在上游反代/中间件完成，这里拿到的是可信活动
	inboxHandler := inbox.NewHandler(ctx.Gateways.Accounts, ctx.Publisher)
	if ctx.Cache != nil {
		r.POST("/inbox", middleware.RateLimitMiddleware(ctx.Cache, "inbox", 300, time.Minute), inboxHandler.PostInbox)
	} else {
		r.POST("/inbox", inboxHandler.PostInbox)
	}

	zap.L().Info("fedinbox listening", zap.String("port", cfg.ServerPort))
	if err := r.Run(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}
