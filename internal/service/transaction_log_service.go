package service

import (
	"context"
	"fmt"

	"bankcore/internal/model"
	"bankcore/internal/repository"
	"bankcore/pkg/currency"

	"gorm.io/gorm"
)

// TransactionLogService 负责为每笔交易派生明细视图与审计视图，
// 并在调用方的数据库事务内落一条 1:1 的审计日志。
//
// 【重要】CommitLog 必须和余额变更、流水插入同事务提交，
// 绝不能事后补写 —— 否则崩溃或并发失败时会出现有流水无日志的孤儿行。
type TransactionLogService struct {
	logRepo *repository.TransactionLogRepository
}

func NewTransactionLogService(db *gorm.DB) *TransactionLogService {
	return &TransactionLogService{
		logRepo: repository.NewTransactionLogRepository(db),
	}
}

// BuildDetails 对交易变体家族多态：按类型给出参与方与可读摘要。
// 摘要里的账号来自账户快照，而不是回查数据库。
func (s *TransactionLogService) BuildDetails(mv model.Movement, origin, destination *model.BankAccount) model.TransactionDetails {
	details := model.TransactionDetails{
		Type:   mv.Kind(),
		Amount: mv.AmountCents(),
	}

	switch mv.Kind() {
	case model.TransactionTypeDeposit:
		details.DestinationAccountNumber = &destination.AccountNumber
		details.Summary = fmt.Sprintf("存款 %s 至账户 %d", currency.FormatCents(mv.AmountCents()), destination.AccountNumber)
	case model.TransactionTypeWithdraw:
		details.OriginAccountNumber = &origin.AccountNumber
		details.Summary = fmt.Sprintf("账户 %d 取款 %s", origin.AccountNumber, currency.FormatCents(mv.AmountCents()))
	case model.TransactionTypeTransfer:
		details.OriginAccountNumber = &origin.AccountNumber
		details.DestinationAccountNumber = &destination.AccountNumber
		details.Summary = fmt.Sprintf("账户 %d 转账 %s 至账户 %d",
			origin.AccountNumber, currency.FormatCents(mv.AmountCents()), destination.AccountNumber)
	}

	return details
}

// BuildAudit 审计视图：操作后的余额、发起人、提交时间。
// 余额取自本工作单元内计算出的终值，与条件 UPDATE 的结果一致。
func (s *TransactionLogService) BuildAudit(mv model.Movement, originBalanceAfter, destinationBalanceAfter *int64, actorUserID int64) model.TransactionAudit {
	return model.TransactionAudit{
		OriginBalanceAfter:      originBalanceAfter,
		DestinationBalanceAfter: destinationBalanceAfter,
		ActorUserID:             actorUserID,
		CommittedAt:             mv.Record().CreatedAt,
	}
}

// CommitLog 在事务 tx 内写入审计日志行，返回落库后的实体。
func (s *TransactionLogService) CommitLog(ctx context.Context, tx *gorm.DB, mv model.Movement, details model.TransactionDetails, audit model.TransactionAudit) (*model.TransactionLog, error) {
	logRow := &model.TransactionLog{
		TransactionID:            mv.Record().ID,
		TransactionNo:            mv.Record().TransactionNo,
		Type:                     details.Type,
		Amount:                   details.Amount,
		OriginAccountNumber:      details.OriginAccountNumber,
		DestinationAccountNumber: details.DestinationAccountNumber,
		Summary:                  details.Summary,
		OriginBalanceAfter:       audit.OriginBalanceAfter,
		DestinationBalanceAfter:  audit.DestinationBalanceAfter,
		ActorUserID:              audit.ActorUserID,
		CommittedAt:              audit.CommittedAt,
	}

	if err := s.logRepo.Create(ctx, tx, logRow); err != nil {
		return nil, fmt.Errorf("写入审计日志失败: %w", err)
	}
	return logRow, nil
}

// GetByTransactionID 按流水 ID 查审计日志（查询接口用）。
func (s *TransactionLogService) GetByTransactionID(ctx context.Context, transactionID int64) (*model.TransactionLog, error) {
	return s.logRepo.GetByTransactionID(ctx, transactionID)
}
