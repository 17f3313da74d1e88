package job

import (
	"context"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/infrastructure/mq"
	"bankcore/internal/model"
	"bankcore/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// OutboxSender 周期扫描发件箱，把 PENDING 的交易事件投递到 Kafka。
// 投递失败累计重试，超过上限标记 FAILED 留待人工排查。
type OutboxSender struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	logger     zerolog.Logger
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *OutboxSender {
	return &OutboxSender{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		logger:     logger.With().Str("job", "outbox_sender").Logger(),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.logger.Info().Msg("事件投递任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("收到停止信号，任务退出")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("查询待发事件失败")
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			s.logger.Error().Err(updateErr).Int64("id", msg.ID).Msg("更新事件状态失败")
		}
		return
	}

	s.logger.Warn().Err(err).Int64("id", msg.ID).Str("key", msg.MessageKey).Msg("事件投递失败")

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.logger.Error().Err(err).Int64("id", msg.ID).Msg("增加重试次数失败")
	}

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.logger.Error().Err(err).Int64("id", msg.ID).Msg("标记事件失败状态失败")
		} else {
			s.logger.Error().Int64("id", msg.ID).Msg("事件超过最大重试次数，标记为失败")
		}
	}
}
