package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/model"
	"bankcore/internal/repository"
	"bankcore/pkg/currency"
	"bankcore/pkg/idgen"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ============================================================================
// 交易服务：存款 / 取款 / 转账
// ============================================================================
//
// 【工作单元】
//
// 每次调用是一个事务性工作单元：读余额 -> 校验 -> 条件更新余额 +
// 追加流水 + 追加审计日志 + 写 outbox 事件，同一个 gorm 事务内
// 一起提交或一起回滚。不存在"扣了款没入账"或"有流水没日志"的
// 中间态可被观测到。
//
// 【并发控制】
//
// 余额写入走乐观锁：条件 UPDATE 带上读快照时的 version，并发写者
// 先提交则 RowsAffected == 0，整个工作单元（含重新读取）有界重试，
// 重试耗尽才对外报 ErrConcurrencyConflict。
//
// 转账涉及两行账户。为避免两笔反向转账互相死锁，两次余额写入
// 固定按账号升序执行，绝不按调用方给定的顺序。
//
// 【取消语义】
//
// ctx 取消只在工作单元启动前生效；单元一旦开始，要么整体提交
// 要么整体回滚，不存在"取消到一半"。
//
// ============================================================================

var (
	ErrAccessDenied        = errors.New("无权操作该账户")
	ErrConcurrencyConflict = errors.New("并发冲突，重试次数耗尽")
)

const defaultUnitMaxRetries = 3

type TransactionService struct {
	db              *gorm.DB
	cfg             *config.Config
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
	logService      *TransactionLogService
	logger          zerolog.Logger
}

func NewTransactionService(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *TransactionService {
	return &TransactionService{
		db:              db,
		cfg:             cfg,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
		logService:      NewTransactionLogService(db),
		logger:          logger,
	}
}

func (s *TransactionService) maxRetries() int {
	if s.cfg != nil && s.cfg.Business.UnitMaxRetries > 0 {
		return s.cfg.Business.UnitMaxRetries
	}
	return defaultUnitMaxRetries
}

// runUnit 有界重试整个工作单元。
// 只有乐观锁冲突触发重试；业务性失败（账户不存在、余额不足、
// 无权限）原样上抛，不重试也不吞掉。
func (s *TransactionService) runUnit(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries(); attempt++ {
		// 取消只在单元启动前生效
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return err
		}
		s.logger.Debug().Int("attempt", attempt+1).Msg("乐观锁冲突，重试工作单元")
	}
	return ErrConcurrencyConflict
}

// Deposit 存款：目标账户余额增加 amount，产生一条流水和一条日志。
// 存款不要求归属权 —— 任何人都可以向指定账号入账。
func (s *TransactionService) Deposit(ctx context.Context, actorUserID, accountNumber, amount int64) (*model.Deposit, error) {
	// 前置条件在任何 I/O 之前校验
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	var deposit *model.Deposit
	err := s.runUnit(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		mv, err := model.NewDeposit(idgen.GenerateTransactionNo(), account.ID, amount, time.Now())
		if err != nil {
			return err
		}

		balanceAfter := account.Balance + amount
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.accountRepo.Credit(ctx, tx, accountNumber, amount, account.Version); err != nil {
				return err
			}
			return s.commitMovement(ctx, tx, mv, nil, account, nil, &balanceAfter, actorUserID)
		})
		if err != nil {
			return err
		}

		deposit = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("transaction_no", deposit.TransactionNo()).
		Int64("account_number", accountNumber).
		Int64("amount", amount).
		Msg("存款成功")
	return deposit, nil
}

// Withdraw 取款：账户必须归属发起人，余额不足则整单失败、余额不变。
func (s *TransactionService) Withdraw(ctx context.Context, actorUserID, accountNumber, amount int64) (*model.Withdraw, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	var withdraw *model.Withdraw
	err := s.runUnit(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if !account.OwnedBy(actorUserID) {
			return ErrAccessDenied
		}
		if account.Balance < amount {
			return repository.ErrBalanceNotEnough
		}

		mv, err := model.NewWithdraw(idgen.GenerateTransactionNo(), account.ID, amount, time.Now())
		if err != nil {
			return err
		}

		balanceAfter := account.Balance - amount
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.accountRepo.Debit(ctx, tx, accountNumber, amount, account.Version); err != nil {
				return err
			}
			return s.commitMovement(ctx, tx, mv, account, nil, &balanceAfter, nil, actorUserID)
		})
		if err != nil {
			return err
		}

		withdraw = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("transaction_no", withdraw.TransactionNo()).
		Int64("account_number", accountNumber).
		Int64("amount", amount).
		Msg("取款成功")
	return withdraw, nil
}

// Transfer 转账（按账号指定目标）。
func (s *TransactionService) Transfer(ctx context.Context, actorUserID, originNumber, destinationNumber, amount int64) (*model.Transfer, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if originNumber == destinationNumber {
		return nil, model.ErrSameAccount
	}

	return s.transfer(ctx, actorUserID, amount, func(ctx context.Context) (*model.BankAccount, error) {
		return s.accountRepo.GetByNumber(ctx, destinationNumber)
	}, originNumber)
}

// TransferToUser 转账（按收款人用户指定目标）——两种调用形态，语义相同。
func (s *TransactionService) TransferToUser(ctx context.Context, actorUserID, originNumber, destinationUserID, amount int64) (*model.Transfer, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	return s.transfer(ctx, actorUserID, amount, func(ctx context.Context) (*model.BankAccount, error) {
		return s.accountRepo.GetByUserID(ctx, destinationUserID)
	}, originNumber)
}

func (s *TransactionService) transfer(ctx context.Context, actorUserID, amount int64, resolveDestination func(context.Context) (*model.BankAccount, error), originNumber int64) (*model.Transfer, error) {
	var transfer *model.Transfer
	err := s.runUnit(ctx, func(ctx context.Context) error {
		origin, err := s.accountRepo.GetByNumber(ctx, originNumber)
		if err != nil {
			return err
		}
		destination, err := resolveDestination(ctx)
		if err != nil {
			return err
		}
		if origin.AccountNumber == destination.AccountNumber {
			return model.ErrSameAccount
		}
		if !origin.OwnedBy(actorUserID) {
			return ErrAccessDenied
		}
		if origin.Balance < amount {
			return repository.ErrBalanceNotEnough
		}

		mv, err := model.NewTransfer(idgen.GenerateTransactionNo(), origin.ID, destination.ID, amount, time.Now())
		if err != nil {
			return err
		}

		originAfter := origin.Balance - amount
		destinationAfter := destination.Balance + amount
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.applyTransferBalances(ctx, tx, origin, destination, amount); err != nil {
				return err
			}
			return s.commitMovement(ctx, tx, mv, origin, destination, &originAfter, &destinationAfter, actorUserID)
		})
		if err != nil {
			return err
		}

		transfer = mv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("transaction_no", transfer.TransactionNo()).
		Int64("origin", originNumber).
		Int64("amount", amount).
		Msg("转账成功")
	return transfer, nil
}

// applyTransferBalances 按账号升序对两行账户执行出账/入账，
// 固定全局顺序，杜绝两笔反向转账的锁顺序死锁。
func (s *TransactionService) applyTransferBalances(ctx context.Context, tx *gorm.DB, origin, destination *model.BankAccount, amount int64) error {
	debit := func() error {
		return s.accountRepo.Debit(ctx, tx, origin.AccountNumber, amount, origin.Version)
	}
	credit := func() error {
		return s.accountRepo.Credit(ctx, tx, destination.AccountNumber, amount, destination.Version)
	}

	if origin.AccountNumber < destination.AccountNumber {
		if err := debit(); err != nil {
			return err
		}
		return credit()
	}
	if err := credit(); err != nil {
		return err
	}
	return debit()
}

// commitMovement 工作单元的公共尾部：流水 + 审计日志 + outbox 事件。
// 必须在余额更新所在的同一事务 tx 内调用。
func (s *TransactionService) commitMovement(ctx context.Context, tx *gorm.DB, mv model.Movement, origin, destination *model.BankAccount, originAfter, destinationAfter *int64, actorUserID int64) error {
	if err := s.transactionRepo.Create(ctx, tx, mv.Record()); err != nil {
		return fmt.Errorf("写入流水失败: %w", err)
	}

	details := s.logService.BuildDetails(mv, origin, destination)
	audit := s.logService.BuildAudit(mv, originAfter, destinationAfter, actorUserID)
	if _, err := s.logService.CommitLog(ctx, tx, mv, details, audit); err != nil {
		return err
	}

	return s.enqueueEvent(ctx, tx, mv, details, actorUserID)
}

// enqueueEvent 把交易事件写入发件箱，由后台任务异步投递 Kafka。
func (s *TransactionService) enqueueEvent(ctx context.Context, tx *gorm.DB, mv model.Movement, details model.TransactionDetails, actorUserID int64) error {
	topic := "transaction_events"
	if s.cfg != nil && s.cfg.Kafka.Topic.TransactionEvents != "" {
		topic = s.cfg.Kafka.Topic.TransactionEvents
	}

	payload := map[string]interface{}{
		"transaction_no": mv.Record().TransactionNo,
		"type":           mv.Kind(),
		"amount":         currency.FormatCents(mv.AmountCents()),
		"actor_user_id":  actorUserID,
		"committed_at":   mv.Record().CreatedAt.Format(time.RFC3339),
	}
	if details.OriginAccountNumber != nil {
		payload["origin_account_number"] = *details.OriginAccountNumber
	}
	if details.DestinationAccountNumber != nil {
		payload["destination_account_number"] = *details.DestinationAccountNumber
	}
	payloadBytes, _ := json.Marshal(payload)

	msg := &model.OutboxMessage{
		MessageKey: mv.Record().TransactionNo,
		Topic:      topic,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("写入事件失败: %w", err)
	}
	return nil
}

// GetLogByTransactionNo 按流水号查审计日志（查询接口用）。
func (s *TransactionService) GetLogByTransactionNo(ctx context.Context, transactionNo string) (*model.TransactionLog, error) {
	trans, err := s.transactionRepo.GetByTransactionNo(ctx, transactionNo)
	if err != nil {
		return nil, err
	}
	return s.logService.GetByTransactionID(ctx, trans.ID)
}

// ListByAccountNumber 查询某账号参与的全部流水。
func (s *TransactionService) ListByAccountNumber(ctx context.Context, accountNumber int64, page, pageSize int) ([]*model.BankTransaction, int64, error) {
	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, 0, err
	}
	return s.transactionRepo.ListByAccountID(ctx, account.ID, page, pageSize)
}
