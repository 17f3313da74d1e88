package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bankcore/internal/config"
	"bankcore/internal/infrastructure/lock"
	"bankcore/internal/model"
	"bankcore/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AccountService 负责开户与账户查询。
// 开户 = 取号（账号 + 网点号）+ 落库。取号撞库（唯一索引冲突）
// 不算失败，按碰撞处理重新取号，次数与取号器共用同一预算思路。
type AccountService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	accountRepo *repository.AccountRepository
	numgen      *AccountNumberGenerator
	logger      zerolog.Logger
}

func NewAccountService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger zerolog.Logger) *AccountService {
	maxAttempts := 0
	if cfg != nil {
		maxAttempts = cfg.Business.NumberGenMaxAttempts
	}
	accountRepo := repository.NewAccountRepository(db)
	return &AccountService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		accountRepo: accountRepo,
		numgen:      NewAccountNumberGenerator(accountRepo, maxAttempts),
		logger:      logger,
	}
}

// OpenAccount 为用户开立账户。
// 按用户维度加分布式锁，挡掉同一用户重复提交的并发开户；
// 锁只是削峰，真正的唯一性仍由数据库唯一索引兜底。
func (s *AccountService) OpenAccount(ctx context.Context, userID int64, category string) (*model.BankAccount, error) {
	if s.redisClient != nil {
		openLock := lock.NewAccountOpenLock(s.redisClient, userID, uuid.NewString())
		if err := openLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
			return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
		}
		defer openLock.Unlock(ctx)
	}

	maxAttempts := defaultNumberGenMaxAttempts
	if s.cfg != nil && s.cfg.Business.NumberGenMaxAttempts > 0 {
		maxAttempts = s.cfg.Business.NumberGenMaxAttempts
	}

	// 取号 -> 插入；插入撞唯一索引说明并发开户抢到了同一个号，
	// 当作碰撞整体重来，而不是向调用方报错。
	for attempt := 0; attempt < maxAttempts; attempt++ {
		accountNumber, err := s.numgen.GenerateAccountNumber(ctx)
		if err != nil {
			return nil, err
		}
		agencyNumber, err := s.numgen.GenerateAgencyNumber(ctx)
		if err != nil {
			return nil, err
		}

		account, err := model.NewBankAccount(accountNumber, agencyNumber, userID, 0, category)
		if err != nil {
			return nil, err
		}

		err = s.accountRepo.Create(ctx, account)
		if err == nil {
			s.logger.Info().
				Int64("user_id", userID).
				Int64("account_number", account.AccountNumber).
				Int64("agency_number", account.AgencyNumber).
				Msg("开户成功")
			return account, nil
		}
		if errors.Is(err, repository.ErrDuplicateNumber) {
			s.logger.Debug().Int64("account_number", accountNumber).Msg("取号碰撞，重新取号")
			continue
		}
		return nil, err
	}
	return nil, ErrGenerationExhausted
}

// GetByNumber 按账号查账户。
func (s *AccountService) GetByNumber(ctx context.Context, accountNumber int64) (*model.BankAccount, error) {
	return s.accountRepo.GetByNumber(ctx, accountNumber)
}

// GetBalance 查询账户余额（分）。
func (s *AccountService) GetBalance(ctx context.Context, accountNumber int64) (int64, error) {
	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}
