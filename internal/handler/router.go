package handler

import (
	"time"

	"bankcore/internal/config"
	"bankcore/internal/infrastructure/cache"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg, logger)
	tokenStore := cache.NewTokenStore(rdb, time.Duration(cfg.Business.TokenTTLMinutes)*time.Minute)

	api := r.Group("/api/v1")
	{
		// 令牌签发不要求已有令牌
		api.POST("/auth/token", h.IssueToken)

		authed := api.Group("", AuthMiddleware(tokenStore))
		{
			authed.DELETE("/auth/token", h.RevokeToken)

			account := authed.Group("/account")
			{
				account.POST("/open", h.OpenAccount)
				account.GET("/balance", h.GetBalance)
			}

			transaction := authed.Group("/transaction")
			{
				transaction.POST("/deposit", h.Deposit)
				transaction.POST("/withdraw", h.Withdraw)
				transaction.POST("/transfer", h.Transfer)
				transaction.POST("/transfer-to-user", h.TransferToUser)
				transaction.GET("/log", h.GetTransactionLog)
				transaction.GET("/list", h.ListTransactions)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
