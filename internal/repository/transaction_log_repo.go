package repository

import (
	"context"
	"errors"

	"bankcore/internal/model"

	"gorm.io/gorm"
)

var ErrLogNotFound = errors.New("审计日志不存在")

// TransactionLogRepository 审计日志仓储，同样只追加。
// transaction_id 上的唯一索引从存储层面排除"一笔流水多条日志"。
type TransactionLogRepository struct {
	db *gorm.DB
}

func NewTransactionLogRepository(db *gorm.DB) *TransactionLogRepository {
	return &TransactionLogRepository{db: db}
}

func (r *TransactionLogRepository) Create(ctx context.Context, tx *gorm.DB, logRow *model.TransactionLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(logRow).Error
}

func (r *TransactionLogRepository) GetByTransactionID(ctx context.Context, transactionID int64) (*model.TransactionLog, error) {
	var logRow model.TransactionLog
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&logRow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return &logRow, nil
}

func (r *TransactionLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TransactionLog{}).Count(&count).Error
	return count, err
}
