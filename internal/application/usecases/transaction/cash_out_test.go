package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/usecases/transaction"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	domainerrors "github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

func newCashOutUseCases(w *world, expiry time.Duration) (*transaction.CashOutRequestUseCase, *transaction.CashOutVerifyUseCase) {
	request := transaction.NewCashOutRequestUseCase(w.wallets, w.txs, w.notifier, w.cache, w.uow, expiry)
	verify := transaction.NewCashOutVerifyUseCase(w.wallets, w.txs, w.notifier, w.cache, w.uow)
	return request, verify
}

func TestCashOutHappyPath(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "1000.00")
	request, verify := newCashOutUseCases(w, 30*time.Minute)

	issued, err := request.Execute(context.Background(), dtos.CashOutRequestCommand{
		UserID: alice.ID().String(),
		Amount: "100.00",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(issued.WithdrawalCode) != 8 {
		t.Errorf("code = %q, want 8 hex characters", issued.WithdrawalCode)
	}
	if got := wallet.Balance().String(); got != "1000.00" {
		t.Errorf("balance = %s, want 1000.00 (no debit at request)", got)
	}

	approved, err := verify.Execute(context.Background(), dtos.CashOutVerifyCommand{
		PhoneNumber:    "96170000001",
		WithdrawalCode: issued.WithdrawalCode,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if approved.Status != "approved" {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.Amount != "100.00" {
		t.Errorf("amount = %q, want 100.00", approved.Amount)
	}
	if got := wallet.Balance().String(); got != "900.00" {
		t.Errorf("balance = %s, want 900.00 after redemption", got)
	}

	row, err := w.txs.FindByReferenceAndType(context.Background(), entities.RefPrefixBLFATM+issued.WithdrawalCode, entities.TypeWithdrawal)
	if err != nil {
		t.Fatalf("row missing: %v", err)
	}
	if row.Status() != entities.StatusCompleted {
		t.Errorf("row status = %s, want COMPLETED", row.Status())
	}
}

func TestCashOutVerifyInsufficientFundsMarksRowFailed(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "1000.00")
	request, verify := newCashOutUseCases(w, 30*time.Minute)

	issued, err := request.Execute(context.Background(), dtos.CashOutRequestCommand{
		UserID: alice.ID().String(),
		Amount: "100.00",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// External debit drains the wallet between request and redemption.
	if err := wallet.ApplyDelta(valueobjects.MustNewMoney("-950.00", valueobjects.USD)); err != nil {
		t.Fatalf("drain: %v", err)
	}

	_, err = verify.Execute(context.Background(), dtos.CashOutVerifyCommand{
		PhoneNumber:    "96170000001",
		WithdrawalCode: issued.WithdrawalCode,
	})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	// The FAILED status is committed even though the call errored.
	row, _ := w.txs.FindByReferenceAndType(context.Background(), entities.RefPrefixBLFATM+issued.WithdrawalCode, entities.TypeWithdrawal)
	if row.Status() != entities.StatusFailed {
		t.Errorf("row status = %s, want FAILED", row.Status())
	}
	if got := wallet.Balance().String(); got != "50.00" {
		t.Errorf("balance = %s, want 50.00 untouched", got)
	}
}

func TestCashOutVerifyExpiredCodeMarksRowExpired(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "1000.00")
	request, verify := newCashOutUseCases(w, -time.Minute)

	issued, err := request.Execute(context.Background(), dtos.CashOutRequestCommand{
		UserID: alice.ID().String(),
		Amount: "100.00",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err = verify.Execute(context.Background(), dtos.CashOutVerifyCommand{
		PhoneNumber:    "96170000001",
		WithdrawalCode: issued.WithdrawalCode,
	})
	if !errors.Is(err, domainerrors.ErrExpired) {
		t.Fatalf("error = %v, want ErrExpired", err)
	}

	row, _ := w.txs.FindByReferenceAndType(context.Background(), entities.RefPrefixBLFATM+issued.WithdrawalCode, entities.TypeWithdrawal)
	if row.Status() != entities.StatusExpired {
		t.Errorf("row status = %s, want EXPIRED", row.Status())
	}
	if got := wallet.Balance().String(); got != "1000.00" {
		t.Errorf("balance = %s, want 1000.00", got)
	}
}

func TestCashOutVerifyInvalidCode(t *testing.T) {
	w := newWorld()
	w.seedUserWithWallet("alice", "96170000001", "1000.00")
	_, verify := newCashOutUseCases(w, 30*time.Minute)

	_, err := verify.Execute(context.Background(), dtos.CashOutVerifyCommand{
		PhoneNumber:    "96170000001",
		WithdrawalCode: "DEADBEEF",
	})
	if !errors.Is(err, domainerrors.ErrInvalidCode) {
		t.Errorf("error = %v, want ErrInvalidCode", err)
	}
}

func TestCashOutVerifyWrongPhone(t *testing.T) {
	w := newWorld()
	alice, _ := w.seedUserWithWallet("alice", "96170000001", "1000.00")
	w.seedUserWithWallet("bob", "96170000002", "0.00")
	request, verify := newCashOutUseCases(w, 30*time.Minute)

	issued, err := request.Execute(context.Background(), dtos.CashOutRequestCommand{
		UserID: alice.ID().String(),
		Amount: "100.00",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// The code is bound to alice's phone; bob's phone cannot redeem it.
	_, err = verify.Execute(context.Background(), dtos.CashOutVerifyCommand{
		PhoneNumber:    "96170000002",
		WithdrawalCode: issued.WithdrawalCode,
	})
	if !errors.Is(err, domainerrors.ErrInvalidCode) {
		t.Errorf("error = %v, want ErrInvalidCode", err)
	}
}

func TestCashOutRequestInsufficientFunds(t *testing.T) {
	w := newWorld()
	alice, _ := w.seedUserWithWallet("alice", "96170000001", "50.00")
	request, _ := newCashOutUseCases(w, 30*time.Minute)

	_, err := request.Execute(context.Background(), dtos.CashOutRequestCommand{
		UserID: alice.ID().String(),
		Amount: "100.00",
	})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Errorf("error = %v, want ErrInsufficientFunds", err)
	}
}

func TestCashOutExpirySweepNoRefund(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "1000.00")
	request, _ := newCashOutUseCases(w, -time.Minute)

	issued, err := request.Execute(context.Background(), dtos.CashOutRequestCommand{
		UserID: alice.ID().String(),
		Amount: "100.00",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	sweep := transaction.NewExpirePendingUseCase(w.wallets, w.txs, w.notifier, w.cache, passthroughUowFactory{}, 100)
	expired, err := sweep.Execute(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	row, _ := w.txs.FindByReferenceAndType(context.Background(), entities.RefPrefixBLFATM+issued.WithdrawalCode, entities.TypeWithdrawal)
	if row.Status() != entities.StatusExpired {
		t.Errorf("row status = %s, want EXPIRED", row.Status())
	}
	// No debit ever happened, so nothing to refund.
	if got := wallet.Balance().String(); got != "1000.00" {
		t.Errorf("balance = %s, want 1000.00", got)
	}
}
