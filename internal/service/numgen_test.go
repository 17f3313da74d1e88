package service

import (
	"context"
	"errors"
	"testing"

	"bankcore/internal/model"
	"bankcore/internal/repository"
)

// TestGenerateAccountNumberDomain 生成的账号始终落在 6 位取值域内且互不重复。
func TestGenerateAccountNumberDomain(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAccountRepository(db)
	gen := NewAccountNumberGenerator(repo, 20)

	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		number, err := gen.GenerateAccountNumber(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if number < model.AccountNumberMin || number > model.AccountNumberMax {
			t.Fatalf("账号 %d 超出取值域", number)
		}
		if seen[number] {
			t.Fatalf("账号 %d 与已分配集合重复", number)
		}
		seen[number] = true

		// 占用该号，后续生成必须避开
		agency, err := gen.GenerateAgencyNumber(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		account := &model.BankAccount{
			AccountNumber: number,
			AgencyNumber:  agency,
			Category:      model.AccountCategoryIndividual,
			UserID:        int64(i + 1),
		}
		if err := db.Create(account).Error; err != nil {
			t.Fatalf("占号失败: %v", err)
		}
	}
}

// TestGenerateAgencyNumberDomain 网点号域独立判重。
func TestGenerateAgencyNumberDomain(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAccountRepository(db)
	gen := NewAccountNumberGenerator(repo, 20)

	number, err := gen.GenerateAgencyNumber(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if number < model.AgencyNumberMin || number > model.AgencyNumberMax {
		t.Fatalf("网点号 %d 超出取值域", number)
	}
}

// TestGenerationExhausted 随机源每次都命中已占用的号时，
// 重试预算耗尽后快速失败，而不是无限循环。
func TestGenerationExhausted(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAccountRepository(db)

	occupied := seedAccount(t, db, 123456, 1234, 1, 0)

	gen := NewAccountNumberGenerator(repo, 5)
	gen.randInt63n = func(n int64) int64 {
		return occupied.AccountNumber - model.AccountNumberMin
	}

	_, err := gen.GenerateAccountNumber(context.Background())
	if !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("want ErrGenerationExhausted, got %v", err)
	}
}
