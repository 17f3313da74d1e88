package service

import (
	"context"
	"errors"
	"testing"

	"bankcore/internal/model"
	"bankcore/internal/repository"

	"github.com/rs/zerolog"
)

// redisClient 传 nil 时开户跳过分布式锁，唯一性仍由唯一索引兜底，
// 测试得以不依赖外部 Redis。
func newTestAccountService(t *testing.T) (*AccountService, *TransactionService) {
	t.Helper()
	db := newTestDB(t)
	return NewAccountService(db, nil, testConfig(), zerolog.Nop()),
		NewTransactionService(db, testConfig(), zerolog.Nop())
}

// TestOpenAccount 开户产生合法取值域内的账号/网点号，初始余额为零。
func TestOpenAccount(t *testing.T) {
	svc, _ := newTestAccountService(t)

	account, err := svc.OpenAccount(context.Background(), 7, model.AccountCategoryIndividual)
	if err != nil {
		t.Fatal(err)
	}
	if account.AccountNumber < model.AccountNumberMin || account.AccountNumber > model.AccountNumberMax {
		t.Fatalf("账号 %d 超出取值域", account.AccountNumber)
	}
	if account.AgencyNumber < model.AgencyNumberMin || account.AgencyNumber > model.AgencyNumberMax {
		t.Fatalf("网点号 %d 超出取值域", account.AgencyNumber)
	}
	if account.Balance != 0 {
		t.Fatalf("初始余额=%d want=0", account.Balance)
	}
	if !account.OwnedBy(7) {
		t.Fatalf("归属用户错误: %+v", account)
	}
}

// TestOpenAccountUniqueNumbers 连续开户不会分配重复账号。
func TestOpenAccountUniqueNumbers(t *testing.T) {
	svc, _ := newTestAccountService(t)

	seen := make(map[int64]bool)
	for i := 0; i < 30; i++ {
		account, err := svc.OpenAccount(context.Background(), int64(i+1), model.AccountCategoryCorporate)
		if err != nil {
			t.Fatal(err)
		}
		if seen[account.AccountNumber] {
			t.Fatalf("账号 %d 重复分配", account.AccountNumber)
		}
		seen[account.AccountNumber] = true
	}
}

// TestOpenAccountRejectsBadCategory 非法账户类型在构造边界被拒绝。
func TestOpenAccountRejectsBadCategory(t *testing.T) {
	svc, _ := newTestAccountService(t)

	_, err := svc.OpenAccount(context.Background(), 1, "GOVERNMENT")
	if !errors.Is(err, model.ErrInvalidCategory) {
		t.Fatalf("want ErrInvalidCategory, got %v", err)
	}
}

// TestGetBalance 开户后存款，查询余额与账本一致。
func TestGetBalance(t *testing.T) {
	svc, txSvc := newTestAccountService(t)

	account, err := svc.OpenAccount(context.Background(), 1, model.AccountCategoryIndividual)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := txSvc.Deposit(context.Background(), 1, account.AccountNumber, 1234); err != nil {
		t.Fatal(err)
	}

	balance, err := svc.GetBalance(context.Background(), account.AccountNumber)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 1234 {
		t.Fatalf("balance=%d want=1234", balance)
	}

	_, err = svc.GetBalance(context.Background(), 999999)
	if !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}
