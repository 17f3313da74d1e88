package model

import (
	"time"
)

// TransactionLog 交易审计日志表
// 与 bank_transaction 严格 1:1：同一数据库事务内一起落库，
// 任何时刻 count(transaction_log) == count(bank_transaction)。
// 只追加，不修改，不删除。
type TransactionLog struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64  `gorm:"uniqueIndex;not null" json:"transaction_id"` // 外键，唯一索引保证 1:1
	TransactionNo string `gorm:"type:varchar(64);index;not null" json:"transaction_no"`

	// ---- 明细视图（参与方、金额、可读摘要）----
	Type                     string `gorm:"type:varchar(20);not null" json:"type"`
	Amount                   int64  `gorm:"not null" json:"amount"`
	OriginAccountNumber      *int64 `json:"origin_account_number"`
	DestinationAccountNumber *int64 `json:"destination_account_number"`
	Summary                  string `gorm:"type:varchar(256);not null" json:"summary"`

	// ---- 审计视图（结果余额、发起人、提交时间）----
	OriginBalanceAfter      *int64    `json:"origin_balance_after"`
	DestinationBalanceAfter *int64    `json:"destination_balance_after"`
	ActorUserID             int64     `gorm:"index;not null" json:"actor_user_id"`
	CommittedAt             time.Time `gorm:"not null" json:"committed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TransactionLog) TableName() string {
	return "transaction_log"
}

// TransactionDetails 由交易变体派生的明细视图。
type TransactionDetails struct {
	Type                     string
	Amount                   int64
	OriginAccountNumber      *int64
	DestinationAccountNumber *int64
	Summary                  string
}

// TransactionAudit 由交易变体派生的审计视图。
type TransactionAudit struct {
	OriginBalanceAfter      *int64
	DestinationBalanceAfter *int64
	ActorUserID             int64
	CommittedAt             time.Time
}
