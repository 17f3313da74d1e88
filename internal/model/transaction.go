package model

import (
	"errors"
	"time"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeDeposit  = "DEPOSIT"  // 存款：只有入账方
	TransactionTypeWithdraw = "WITHDRAW" // 取款：只有出账方
	TransactionTypeTransfer = "TRANSFER" // 转账：出账方 + 入账方
)

var ErrMalformedTransaction = errors.New("流水记录缺少该类型必需的账户引用")

// ============================================================================
// 账本流水实体
// ============================================================================

// BankTransaction 交易流水表
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水必须有全局唯一流水号 —— 便于对账
// 3. 每笔流水恰好对应一条审计日志（见 TransactionLog）—— 1:1 不变式
//
// 存储层用 type 标签 + 可空的出入账外键把三种交易放在一张表里；
// 领域层通过下面的 Deposit/Withdraw/Transfer 变体类型收紧每种
// 交易必填的引用，可空字段的歧义不外泄给调用方。
type BankTransaction struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	Type                 string    `gorm:"type:varchar(20);not null" json:"type"`                       // DEPOSIT / WITHDRAW / TRANSFER
	Amount               int64     `gorm:"not null" json:"amount"`                                      // 金额（分），恒为正
	OriginAccountID      *int64    `gorm:"index" json:"origin_account_id"`                              // 出账账户（取款/转账必填）
	DestinationAccountID *int64    `gorm:"index" json:"destination_account_id"`                         // 入账账户（存款/转账必填）
	CreatedAt            time.Time `gorm:"autoCreateTime;index" json:"created_at"`                      // 提交时间（UTC）
}

func (BankTransaction) TableName() string {
	return "bank_transaction"
}

// ============================================================================
// 领域变体类型
// ============================================================================

// Movement 是三种交易变体的公共视图，日志服务按此多态构建明细与审计。
type Movement interface {
	Kind() string
	AmountCents() int64
	// Refs 返回出账/入账账户 ID，不涉及的一侧为 nil。
	Refs() (origin, destination *int64)
	Record() *BankTransaction
}

// Deposit 存款：目标账户必填。
type Deposit struct {
	record *BankTransaction
}

// Withdraw 取款：来源账户必填。
type Withdraw struct {
	record *BankTransaction
}

// Transfer 转账：来源与目标账户均必填，且二者不同。
type Transfer struct {
	record *BankTransaction
}

func (d *Deposit) Kind() string       { return TransactionTypeDeposit }
func (d *Deposit) AmountCents() int64 { return d.record.Amount }
func (d *Deposit) Refs() (*int64, *int64) {
	return nil, d.record.DestinationAccountID
}
func (d *Deposit) Record() *BankTransaction    { return d.record }
func (d *Deposit) DestinationAccountID() int64 { return *d.record.DestinationAccountID }
func (d *Deposit) TransactionNo() string       { return d.record.TransactionNo }
func (d *Deposit) CommittedAt() time.Time      { return d.record.CreatedAt }

func (w *Withdraw) Kind() string       { return TransactionTypeWithdraw }
func (w *Withdraw) AmountCents() int64 { return w.record.Amount }
func (w *Withdraw) Refs() (*int64, *int64) {
	return w.record.OriginAccountID, nil
}
func (w *Withdraw) Record() *BankTransaction { return w.record }
func (w *Withdraw) OriginAccountID() int64   { return *w.record.OriginAccountID }
func (w *Withdraw) TransactionNo() string    { return w.record.TransactionNo }
func (w *Withdraw) CommittedAt() time.Time   { return w.record.CreatedAt }

func (t *Transfer) Kind() string       { return TransactionTypeTransfer }
func (t *Transfer) AmountCents() int64 { return t.record.Amount }
func (t *Transfer) Refs() (*int64, *int64) {
	return t.record.OriginAccountID, t.record.DestinationAccountID
}
func (t *Transfer) Record() *BankTransaction    { return t.record }
func (t *Transfer) OriginAccountID() int64      { return *t.record.OriginAccountID }
func (t *Transfer) DestinationAccountID() int64 { return *t.record.DestinationAccountID }
func (t *Transfer) TransactionNo() string       { return t.record.TransactionNo }
func (t *Transfer) CommittedAt() time.Time      { return t.record.CreatedAt }

// NewDeposit 构造存款变体，金额与引用在此处收口校验。
func NewDeposit(transactionNo string, destinationAccountID, amount int64, at time.Time) (*Deposit, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Deposit{record: &BankTransaction{
		TransactionNo:        transactionNo,
		Type:                 TransactionTypeDeposit,
		Amount:               amount,
		DestinationAccountID: &destinationAccountID,
		CreatedAt:            at.UTC(),
	}}, nil
}

// NewWithdraw 构造取款变体。
func NewWithdraw(transactionNo string, originAccountID, amount int64, at time.Time) (*Withdraw, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Withdraw{record: &BankTransaction{
		TransactionNo:   transactionNo,
		Type:            TransactionTypeWithdraw,
		Amount:          amount,
		OriginAccountID: &originAccountID,
		CreatedAt:       at.UTC(),
	}}, nil
}

// NewTransfer 构造转账变体；来源与目标必须是两个不同账户。
func NewTransfer(transactionNo string, originAccountID, destinationAccountID, amount int64, at time.Time) (*Transfer, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if originAccountID == destinationAccountID {
		return nil, ErrSameAccount
	}
	return &Transfer{record: &BankTransaction{
		TransactionNo:        transactionNo,
		Type:                 TransactionTypeTransfer,
		Amount:               amount,
		OriginAccountID:      &originAccountID,
		DestinationAccountID: &destinationAccountID,
		CreatedAt:            at.UTC(),
	}}, nil
}

var (
	ErrInvalidAmount = errors.New("金额必须大于0")
	ErrSameAccount   = errors.New("来源账户与目标账户不能相同")
)

// FromRecord 把存储行还原为对应的变体类型。
// 行形状与 type 标签不一致视为数据损坏，返回 ErrMalformedTransaction。
func FromRecord(r *BankTransaction) (Movement, error) {
	switch r.Type {
	case TransactionTypeDeposit:
		if r.DestinationAccountID == nil {
			return nil, ErrMalformedTransaction
		}
		return &Deposit{record: r}, nil
	case TransactionTypeWithdraw:
		if r.OriginAccountID == nil {
			return nil, ErrMalformedTransaction
		}
		return &Withdraw{record: r}, nil
	case TransactionTypeTransfer:
		if r.OriginAccountID == nil || r.DestinationAccountID == nil {
			return nil, ErrMalformedTransaction
		}
		return &Transfer{record: r}, nil
	default:
		return nil, ErrMalformedTransaction
	}
}
