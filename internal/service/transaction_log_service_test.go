package service

import (
	"context"
	"testing"
	"time"

	"bankcore/internal/model"
)

func mustDeposit(t *testing.T, destinationID int64) *model.Deposit {
	t.Helper()
	mv, err := model.NewDeposit("TXN1", destinationID, 5000, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return mv
}

// TestBuildDetails 三种变体各自带齐必填参与方与可读摘要。
func TestBuildDetails(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionLogService(db)

	origin := &model.BankAccount{ID: 1, AccountNumber: 100001}
	destination := &model.BankAccount{ID: 2, AccountNumber: 200002}

	deposit := mustDeposit(t, destination.ID)
	details := svc.BuildDetails(deposit, nil, destination)
	if details.Type != model.TransactionTypeDeposit || details.Amount != 5000 {
		t.Fatalf("details=%+v", details)
	}
	if details.OriginAccountNumber != nil {
		t.Fatalf("存款不应有来源账号: %+v", details)
	}
	if details.DestinationAccountNumber == nil || *details.DestinationAccountNumber != 200002 {
		t.Fatalf("存款目标账号错误: %+v", details)
	}
	if details.Summary == "" {
		t.Fatal("摘要为空")
	}

	withdraw, err := model.NewWithdraw("TXN2", origin.ID, 300, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	details = svc.BuildDetails(withdraw, origin, nil)
	if details.OriginAccountNumber == nil || details.DestinationAccountNumber != nil {
		t.Fatalf("取款参与方错误: %+v", details)
	}

	transfer, err := model.NewTransfer("TXN3", origin.ID, destination.ID, 700, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	details = svc.BuildDetails(transfer, origin, destination)
	if details.OriginAccountNumber == nil || details.DestinationAccountNumber == nil {
		t.Fatalf("转账参与方错误: %+v", details)
	}
}

// TestBuildAudit 审计视图带上结果余额、发起人与提交时间。
func TestBuildAudit(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionLogService(db)

	deposit := mustDeposit(t, 2)
	after := int64(8000)
	audit := svc.BuildAudit(deposit, nil, &after, 42)

	if audit.ActorUserID != 42 {
		t.Fatalf("actor=%d want=42", audit.ActorUserID)
	}
	if audit.DestinationBalanceAfter == nil || *audit.DestinationBalanceAfter != 8000 {
		t.Fatalf("结果余额错误: %+v", audit)
	}
	if audit.CommittedAt.IsZero() {
		t.Fatal("提交时间未设置")
	}
	if audit.CommittedAt.Location() != time.UTC {
		t.Fatalf("提交时间应为 UTC: %v", audit.CommittedAt)
	}
}

// TestCommitLogOnePerTransaction transaction_id 唯一索引拒绝第二条日志。
func TestCommitLogOnePerTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := NewTransactionLogService(db)
	destination := seedAccount(t, db, 200002, 2002, 2, 0)

	deposit := mustDeposit(t, destination.ID)
	if err := db.Create(deposit.Record()).Error; err != nil {
		t.Fatal(err)
	}

	details := svc.BuildDetails(deposit, nil, destination)
	audit := svc.BuildAudit(deposit, nil, nil, 1)

	if _, err := svc.CommitLog(context.Background(), db, deposit, details, audit); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CommitLog(context.Background(), db, deposit, details, audit); err == nil {
		t.Fatal("同一流水的第二条日志应被唯一索引拒绝")
	}
}
