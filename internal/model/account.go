package model

import (
	"errors"
	"time"
)

const (
	AccountCategoryIndividual = "INDIVIDUAL" // 个人账户
	AccountCategoryCorporate  = "CORPORATE"  // 企业账户
)

// 账号/网点号的取值域。账号为 6 位数字，网点号为 4 位数字，
// 两个域各自独立唯一（由数据库唯一索引兜底）。
const (
	AccountNumberMin = 100000
	AccountNumberMax = 999999
	AgencyNumberMin  = 1000
	AgencyNumberMax  = 9999
)

var (
	ErrInvalidBalance   = errors.New("余额不能为负")
	ErrInvalidCategory  = errors.New("账户类型不合法")
	ErrNumberOutOfRange = errors.New("账号超出取值域")
)

// BankAccount 银行账户表
// 余额以最小货币单位（分）存储，避免浮点误差。
// balance 只允许通过事务操作修改（见 repository.Debit/Credit），
// 不提供 setter，不变式 balance >= 0 由条件更新语句保证。
type BankAccount struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountNumber int64     `gorm:"uniqueIndex;not null" json:"account_number"` // 6位账号，分配后不可变
	AgencyNumber  int64     `gorm:"uniqueIndex;not null" json:"agency_number"`  // 4位网点号
	Balance       int64     `gorm:"not null;default:0" json:"balance"`          // 可用余额（分）
	Category      string    `gorm:"type:varchar(20);not null" json:"category"`  // INDIVIDUAL / CORPORATE
	UserID        int64     `gorm:"index;not null" json:"user_id"`              // 账户归属用户（用户数据由认证子系统维护）
	Version       int       `gorm:"not null;default:0" json:"version"`          // 乐观锁版本号
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BankAccount) TableName() string {
	return "bank_account"
}

// NewBankAccount 构造一个待持久化的账户，在构造边界校验全部不变式。
func NewBankAccount(accountNumber, agencyNumber, userID, initialBalance int64, category string) (*BankAccount, error) {
	if accountNumber < AccountNumberMin || accountNumber > AccountNumberMax {
		return nil, ErrNumberOutOfRange
	}
	if agencyNumber < AgencyNumberMin || agencyNumber > AgencyNumberMax {
		return nil, ErrNumberOutOfRange
	}
	if initialBalance < 0 {
		return nil, ErrInvalidBalance
	}
	if category != AccountCategoryIndividual && category != AccountCategoryCorporate {
		return nil, ErrInvalidCategory
	}
	return &BankAccount{
		AccountNumber: accountNumber,
		AgencyNumber:  agencyNumber,
		Balance:       initialBalance,
		Category:      category,
		UserID:        userID,
	}, nil
}

// OwnedBy 判断账户是否归属某用户，提现/转账的权限检查入口。
func (a *BankAccount) OwnedBy(userID int64) bool {
	return a.UserID == userID
}
