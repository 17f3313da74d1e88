package repository

import (
	"context"
	"errors"

	"bankcore/internal/model"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("流水不存在")

// TransactionRepository 账本流水仓储，只提供追加与查询，没有更新和删除。
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.BankTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepository) GetByTransactionNo(ctx context.Context, transactionNo string) (*model.BankTransaction, error) {
	var trans model.BankTransaction
	err := r.db.WithContext(ctx).Where("transaction_no = ?", transactionNo).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &trans, nil
}

// ListByAccountID 查询某账户作为任一参与方的流水，按时间倒序分页。
func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID int64, page, pageSize int) ([]*model.BankTransaction, int64, error) {
	var transactions []*model.BankTransaction
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.BankTransaction{}).
		Where("origin_account_id = ? OR destination_account_id = ?", accountID, accountID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// Count 返回流水总数，审计任务用它和日志总数比对 1:1 不变式。
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BankTransaction{}).Count(&count).Error
	return count, err
}
