package job

import (
	"context"
	"time"

	"bankcore/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// LedgerAuditJob 周期核对账本不变式：
// 任何时刻 count(transaction_log) == count(bank_transaction)。
// 日志和流水在同一事务内落库，正常情况下二者永远相等；
// 出现偏差说明有人绕过交易服务写库，立即告警级输出。
type LedgerAuditJob struct {
	db              *gorm.DB
	transactionRepo *repository.TransactionRepository
	logRepo         *repository.TransactionLogRepository
	logger          zerolog.Logger
	interval        time.Duration
}

func NewLedgerAuditJob(db *gorm.DB, logger zerolog.Logger) *LedgerAuditJob {
	return &LedgerAuditJob{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
		logRepo:         repository.NewTransactionLogRepository(db),
		logger:          logger.With().Str("job", "ledger_audit").Logger(),
		interval:        30 * time.Second,
	}
}

func (j *LedgerAuditJob) Start(ctx context.Context) {
	j.logger.Info().Msg("账本审计任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("收到停止信号，任务退出")
			return
		case <-ticker.C:
			j.checkOnce(ctx)
		}
	}
}

func (j *LedgerAuditJob) checkOnce(ctx context.Context) {
	transactions, err := j.transactionRepo.Count(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("统计流水失败")
		return
	}
	logs, err := j.logRepo.Count(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("统计审计日志失败")
		return
	}

	if transactions != logs {
		j.logger.Error().
			Int64("transactions", transactions).
			Int64("logs", logs).
			Msg("账本 1:1 不变式被破坏，存在无日志流水或无流水日志")
	}
}
