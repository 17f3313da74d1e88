package model

import (
	"errors"
	"testing"
	"time"
)

// TestVariantConstructors 每种变体在构造边界校验金额与引用。
func TestVariantConstructors(t *testing.T) {
	now := time.Now()

	if _, err := NewDeposit("T1", 1, 0, now); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if _, err := NewWithdraw("T2", 1, -5, now); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if _, err := NewTransfer("T3", 1, 1, 100, now); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("want ErrSameAccount, got %v", err)
	}

	transfer, err := NewTransfer("T4", 1, 2, 100, now)
	if err != nil {
		t.Fatal(err)
	}
	origin, destination := transfer.Refs()
	if origin == nil || destination == nil {
		t.Fatal("转账必须同时有出入账引用")
	}
	if transfer.Record().CreatedAt.Location() != time.UTC {
		t.Fatal("提交时间应为 UTC")
	}
}

// TestFromRecord 行形状与类型标签不一致视为数据损坏。
func TestFromRecord(t *testing.T) {
	one, two := int64(1), int64(2)

	cases := []struct {
		name    string
		record  BankTransaction
		wantErr bool
	}{
		{"合法存款", BankTransaction{Type: TransactionTypeDeposit, Amount: 1, DestinationAccountID: &two}, false},
		{"存款缺目标", BankTransaction{Type: TransactionTypeDeposit, Amount: 1}, true},
		{"合法取款", BankTransaction{Type: TransactionTypeWithdraw, Amount: 1, OriginAccountID: &one}, false},
		{"取款缺来源", BankTransaction{Type: TransactionTypeWithdraw, Amount: 1}, true},
		{"合法转账", BankTransaction{Type: TransactionTypeTransfer, Amount: 1, OriginAccountID: &one, DestinationAccountID: &two}, false},
		{"转账缺一侧", BankTransaction{Type: TransactionTypeTransfer, Amount: 1, OriginAccountID: &one}, true},
		{"未知类型", BankTransaction{Type: "REBATE", Amount: 1}, true},
	}

	for _, tc := range cases {
		mv, err := FromRecord(&tc.record)
		if tc.wantErr {
			if !errors.Is(err, ErrMalformedTransaction) {
				t.Fatalf("%s: want ErrMalformedTransaction, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if mv.Kind() != tc.record.Type {
			t.Fatalf("%s: kind=%s", tc.name, mv.Kind())
		}
	}
}

// TestNewBankAccount 账户构造边界校验取值域、余额与类型。
func TestNewBankAccount(t *testing.T) {
	if _, err := NewBankAccount(99999, 1000, 1, 0, AccountCategoryIndividual); !errors.Is(err, ErrNumberOutOfRange) {
		t.Fatalf("want ErrNumberOutOfRange, got %v", err)
	}
	if _, err := NewBankAccount(100000, 999, 1, 0, AccountCategoryIndividual); !errors.Is(err, ErrNumberOutOfRange) {
		t.Fatalf("want ErrNumberOutOfRange, got %v", err)
	}
	if _, err := NewBankAccount(100000, 1000, 1, -1, AccountCategoryIndividual); !errors.Is(err, ErrInvalidBalance) {
		t.Fatalf("want ErrInvalidBalance, got %v", err)
	}
	if _, err := NewBankAccount(100000, 1000, 1, 0, "TRUST"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("want ErrInvalidCategory, got %v", err)
	}

	account, err := NewBankAccount(123456, 4321, 9, 0, AccountCategoryCorporate)
	if err != nil {
		t.Fatal(err)
	}
	if !account.OwnedBy(9) || account.OwnedBy(10) {
		t.Fatalf("归属判断错误: %+v", account)
	}
}
