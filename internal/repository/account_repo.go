package repository

import (
	"context"
	"errors"

	"bankcore/internal/model"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound  = errors.New("账户不存在")
	ErrBalanceNotEnough = errors.New("余额不足")
	ErrOptimisticLock   = errors.New("乐观锁冲突，请重试")
	ErrDuplicateNumber  = errors.New("账号或网点号已被占用")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create 插入新账户。
// 账号/网点号的唯一性最终由数据库唯一索引保证，撞号时返回
// ErrDuplicateNumber，由上层当作碰撞重新取号，而不是致命错误。
func (r *AccountRepository) Create(ctx context.Context, account *model.BankAccount) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateNumber
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber int64) (*model.BankAccount, error) {
	return r.getByNumber(ctx, r.db, accountNumber)
}

// getByNumber 在指定连接（事务内传 tx）上按账号查账户。
func (r *AccountRepository) getByNumber(ctx context.Context, db *gorm.DB, accountNumber int64) (*model.BankAccount, error) {
	var account model.BankAccount
	err := db.WithContext(ctx).Where("account_number = ?", accountNumber).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByUserID 按归属用户查账户（转账的"按用户转"入口使用）。
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*model.BankAccount, error) {
	var account model.BankAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) ExistsByNumber(ctx context.Context, accountNumber int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BankAccount{}).
		Where("account_number = ?", accountNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) ExistsByAgency(ctx context.Context, agencyNumber int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BankAccount{}).
		Where("agency_number = ?", agencyNumber).
		Count(&count).Error
	return count > 0, err
}

// Debit 条件扣款：余额充足且版本未被并发写者推进时才生效。
//
// 【关键点】把"查余额"和"扣款"合并成一条条件 UPDATE，
// 余额非负不变式由 balance >= ? 条件在数据库侧保证；
// RowsAffected == 0 时再回查一次区分"余额不足"和"版本冲突"。
func (r *AccountRepository) Debit(ctx context.Context, tx *gorm.DB, accountNumber int64, amount int64, version int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.BankAccount{}).
		Where("account_number = ? AND balance >= ? AND version = ?", accountNumber, amount, version).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance - ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// 在同一事务连接上回查，区分"余额不足"和"版本冲突"
		account, err := r.getByNumber(ctx, tx, accountNumber)
		if err != nil {
			return err
		}
		if account.Balance < amount {
			return ErrBalanceNotEnough
		}
		return ErrOptimisticLock
	}

	return nil
}

// Credit 入账：只加不减，不会破坏余额非负不变式。
// 同样带版本条件 —— 入账本身不会失败，但审计日志要记录操作后的
// 精确余额，读到的快照被并发写者推进过就必须整单重来。
func (r *AccountRepository) Credit(ctx context.Context, tx *gorm.DB, accountNumber int64, amount int64, version int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.BankAccount{}).
		Where("account_number = ? AND version = ?", accountNumber, version).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.getByNumber(ctx, tx, accountNumber); err != nil {
			return err
		}
		return ErrOptimisticLock
	}

	return nil
}
