package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bankcore/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.BankAccount{}); err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}
	return db
}

func seed(t *testing.T, repo *AccountRepository, accountNumber, agencyNumber, userID, balance int64) *model.BankAccount {
	t.Helper()
	account := &model.BankAccount{
		AccountNumber: accountNumber,
		AgencyNumber:  agencyNumber,
		Balance:       balance,
		Category:      model.AccountCategoryIndividual,
		UserID:        userID,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("预置账户失败: %v", err)
	}
	return account
}

// TestCreateDuplicateNumber 撞唯一索引映射为 ErrDuplicateNumber，供上层按碰撞重试。
func TestCreateDuplicateNumber(t *testing.T) {
	repo := NewAccountRepository(newTestDB(t))
	seed(t, repo, 100001, 1001, 1, 0)

	dup := &model.BankAccount{
		AccountNumber: 100001,
		AgencyNumber:  1002,
		Category:      model.AccountCategoryIndividual,
		UserID:        2,
	}
	if err := repo.Create(context.Background(), dup); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("want ErrDuplicateNumber, got %v", err)
	}

	// 网点号域独立判重
	dupAgency := &model.BankAccount{
		AccountNumber: 100002,
		AgencyNumber:  1001,
		Category:      model.AccountCategoryIndividual,
		UserID:        3,
	}
	if err := repo.Create(context.Background(), dupAgency); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("want ErrDuplicateNumber, got %v", err)
	}
}

// TestDebit 余额与版本双条件：余额不足和版本过期分别报不同错误，余额都不动。
func TestDebit(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	account := seed(t, repo, 100001, 1001, 1, 10000)

	// 正常扣款，版本推进
	if err := repo.Debit(context.Background(), nil, 100001, 3000, account.Version); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByNumber(context.Background(), 100001)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 7000 {
		t.Fatalf("balance=%d want=7000", got.Balance)
	}
	if got.Version != account.Version+1 {
		t.Fatalf("version=%d want=%d", got.Version, account.Version+1)
	}

	// 版本过期：拿旧版本再扣
	if err := repo.Debit(context.Background(), nil, 100001, 1000, account.Version); !errors.Is(err, ErrOptimisticLock) {
		t.Fatalf("want ErrOptimisticLock, got %v", err)
	}

	// 余额不足
	if err := repo.Debit(context.Background(), nil, 100001, 99999, got.Version); !errors.Is(err, ErrBalanceNotEnough) {
		t.Fatalf("want ErrBalanceNotEnough, got %v", err)
	}

	// 两次失败都不应改动余额
	got, err = repo.GetByNumber(context.Background(), 100001)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 7000 {
		t.Fatalf("失败后余额被改动: %d", got.Balance)
	}
}

// TestCredit 入账带版本条件，读快照被并发推进后要求整单重试。
func TestCredit(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	account := seed(t, repo, 100001, 1001, 1, 0)

	if err := repo.Credit(context.Background(), nil, 100001, 2500, account.Version); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByNumber(context.Background(), 100001)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 2500 {
		t.Fatalf("balance=%d want=2500", got.Balance)
	}

	if err := repo.Credit(context.Background(), nil, 100001, 100, account.Version); !errors.Is(err, ErrOptimisticLock) {
		t.Fatalf("want ErrOptimisticLock, got %v", err)
	}

	if err := repo.Credit(context.Background(), nil, 999999, 100, 0); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

// TestGetByUserID 按归属用户解析账户（按用户转账入口）。
func TestGetByUserID(t *testing.T) {
	repo := NewAccountRepository(newTestDB(t))
	seed(t, repo, 100001, 1001, 7, 0)

	account, err := repo.GetByUserID(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if account.AccountNumber != 100001 {
		t.Fatalf("account=%+v", account)
	}

	if _, err := repo.GetByUserID(context.Background(), 8); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}
