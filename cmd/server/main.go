package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/handler"
	"bankcore/internal/infrastructure/cache"
	"bankcore/internal/infrastructure/database"
	"bankcore/internal/infrastructure/mq"
	"bankcore/internal/job"
	"bankcore/pkg/idgen"
	"bankcore/pkg/logger"
)

func main() {
	cfg := config.LoadConfig("config/config.yaml")

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	// 初始化流水号生成器
	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL)
	log.Info().Msg("MySQL 连接成功")

	redisClient := cache.InitRedis(&cfg.Redis)
	log.Info().Msg("Redis 连接成功")

	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()
	log.Info().Msg("Kafka 生产者创建成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 后台任务：事件投递 + 账本 1:1 审计
	outboxSender := job.NewOutboxSender(db, cfg, log)
	go outboxSender.Start(ctx)

	auditJob := job.NewLedgerAuditJob(db, log)
	go auditJob.Start(ctx)

	router := handler.SetupRouter(db, redisClient, cfg, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("服务启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("服务启动失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("正在关闭服务...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("服务关闭异常")
	}

	log.Info().Msg("服务已关闭")
}
