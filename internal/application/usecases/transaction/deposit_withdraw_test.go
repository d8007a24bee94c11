package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/usecases/transaction"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	domainerrors "github.com/purplewallet/walletcore/internal/domain/errors"
)

func TestDepositCreditsWalletByPhone(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "0.00")
	uc := transaction.NewDepositUseCase(w.wallets, w.txs, w.notifier, w.cache, w.uow)

	result, err := uc.Execute(context.Background(), dtos.DepositCommand{
		PhoneNumber:   "96170000001",
		Amount:        "75.50",
		FundingSource: string(entities.SourcePaysend),
		Reference:     entities.PaysendReference("ext-1"),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Status != "processed" {
		t.Errorf("status = %q, want processed", result.Status)
	}
	if got := wallet.Balance().String(); got != "75.50" {
		t.Errorf("balance = %s, want 75.50", got)
	}

	if got := w.cache.invalidated; len(got) != 1 || got[0] != alice.ID() {
		t.Errorf("cache invalidations = %v, want [%s]", got, alice.ID())
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	w := newWorld()
	w.seedUserWithWallet("alice", "96170000001", "0.00")
	uc := transaction.NewDepositUseCase(w.wallets, w.txs, w.notifier, w.cache, w.uow)

	for _, amount := range []string{"0.00", "-5.00"} {
		_, err := uc.Execute(context.Background(), dtos.DepositCommand{
			PhoneNumber:   "96170000001",
			Amount:        amount,
			FundingSource: string(entities.SourceInternal),
			Reference:     entities.NewDepositReference(),
		})
		if !errors.Is(err, domainerrors.ErrNonPositiveAmount) {
			t.Errorf("amount %s: error = %v, want ErrNonPositiveAmount", amount, err)
		}
	}
}

func TestWithdrawDebitsWallet(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "100.00")
	uc := transaction.NewWithdrawUseCase(w.wallets, w.txs, w.notifier, w.cache, w.uow)

	result, err := uc.Execute(context.Background(), dtos.WithdrawCommand{
		UserID: alice.ID().String(),
		Amount: "30.00",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Status != string(entities.StatusCompleted) {
		t.Errorf("status = %q, want COMPLETED", result.Status)
	}
	if got := wallet.Balance().String(); got != "70.00" {
		t.Errorf("balance = %s, want 70.00", got)
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	w := newWorld()
	alice, wallet := w.seedUserWithWallet("alice", "96170000001", "20.00")
	uc := transaction.NewWithdrawUseCase(w.wallets, w.txs, w.notifier, w.cache, w.uow)

	_, err := uc.Execute(context.Background(), dtos.WithdrawCommand{
		UserID: alice.ID().String(),
		Amount: "30.00",
	})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Errorf("error = %v, want ErrInsufficientFunds", err)
	}
	if got := wallet.Balance().String(); got != "20.00" {
		t.Errorf("balance = %s, want 20.00 untouched", got)
	}
}
