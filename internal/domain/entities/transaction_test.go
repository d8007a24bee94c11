package entities_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/domain/entities"
	domainerrors "github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

func TestNewDeposit(t *testing.T) {
	walletID := uuid.New()
	amount := valueobjects.MustNewMoney("60.00", valueobjects.USD)

	tx, err := entities.NewDeposit(walletID, amount, entities.SourcePaysend, entities.PaysendReference("pay_1"))
	if err != nil {
		t.Fatalf("NewDeposit() error = %v", err)
	}

	if tx.Status() != entities.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", tx.Status())
	}
	if tx.ExpiryTime() != nil {
		t.Error("deposits must not carry an expiry deadline")
	}
	if tx.Reference() != "Paysend: pay_1" {
		t.Errorf("reference = %q", tx.Reference())
	}
	if tx.SignedAmount().String() != "60.00" {
		t.Errorf("signed amount = %s, want +60.00", tx.SignedAmount())
	}
}

func TestNewTransaction_NonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-10.00"} {
		t.Run(amount, func(t *testing.T) {
			_, err := entities.NewDeposit(
				uuid.New(),
				valueobjects.MustNewMoney(amount, valueobjects.USD),
				entities.SourceInternal,
				entities.NewDepositReference(),
			)
			if !errors.Is(err, domainerrors.ErrNonPositiveAmount) {
				t.Errorf("error = %v, want ErrNonPositiveAmount", err)
			}
		})
	}
}

func TestNewTransferPair(t *testing.T) {
	sender := uuid.New()
	recipient := uuid.New()
	amount := valueobjects.MustNewMoney("50.00", valueobjects.USD)
	ref := entities.NewTransferReference()
	expiry := time.Now().Add(24 * time.Hour)

	out, in, err := entities.NewTransferPair(sender, recipient, amount, ref, expiry)
	if err != nil {
		t.Fatalf("NewTransferPair() error = %v", err)
	}

	if out.Type() != entities.TypeTransferOut || in.Type() != entities.TypeTransferIn {
		t.Errorf("types = %s/%s", out.Type(), in.Type())
	}
	if out.Reference() != ref || in.Reference() != ref {
		t.Error("both legs must share one reference")
	}
	if out.WalletID() != sender || *out.RelatedWalletID() != recipient {
		t.Error("OUT leg wallet/related mismatch")
	}
	if in.WalletID() != recipient || *in.RelatedWalletID() != sender {
		t.Error("IN leg wallet/related mismatch")
	}
	if !out.IsPending() || !in.IsPending() {
		t.Error("both legs must start PENDING")
	}
	if out.SignedAmount().String() != "-50.00" {
		t.Errorf("OUT signed amount = %s, want -50.00", out.SignedAmount())
	}
	if in.SignedAmount().String() != "50.00" {
		t.Errorf("IN signed amount = %s, want +50.00", in.SignedAmount())
	}
}

func TestNewTransferPair_SelfTransfer(t *testing.T) {
	id := uuid.New()
	_, _, err := entities.NewTransferPair(
		id, id,
		valueobjects.MustNewMoney("10.00", valueobjects.USD),
		entities.NewTransferReference(),
		time.Now().Add(time.Hour),
	)
	if !errors.Is(err, domainerrors.ErrSelfTransfer) {
		t.Errorf("error = %v, want ErrSelfTransfer", err)
	}
}

func TestNewCashOutRequest(t *testing.T) {
	code := entities.NewWithdrawalCode()
	expiry := time.Now().Add(30 * time.Minute)

	tx, err := entities.NewCashOutRequest(
		uuid.New(),
		valueobjects.MustNewMoney("100.00", valueobjects.USD),
		code,
		expiry,
	)
	if err != nil {
		t.Fatalf("NewCashOutRequest() error = %v", err)
	}

	if tx.Status() != entities.StatusPending {
		t.Errorf("status = %s, want PENDING", tx.Status())
	}
	if tx.FundingSource() != entities.SourceBLFATM {
		t.Errorf("funding source = %s, want BLF_ATM", tx.FundingSource())
	}
	if !strings.HasSuffix(tx.Reference(), code) || !strings.HasPrefix(tx.Reference(), "BLF-ATM-") {
		t.Errorf("reference = %q", tx.Reference())
	}
	if tx.ExpiryTime() == nil || !tx.ExpiryTime().Equal(expiry) {
		t.Error("expiry deadline not carried")
	}
}

func TestTransaction_StatusTransitions(t *testing.T) {
	newPending := func(t *testing.T) *entities.Transaction {
		t.Helper()
		tx, _, err := pairForTest(t)
		if err != nil {
			t.Fatal(err)
		}
		return tx
	}

	t.Run("Pending to completed", func(t *testing.T) {
		tx := newPending(t)
		if err := tx.MarkCompleted(); err != nil {
			t.Fatalf("MarkCompleted() error = %v", err)
		}
	})

	t.Run("Pending to accepted to completed", func(t *testing.T) {
		tx := newPending(t)
		if err := tx.MarkAccepted(); err != nil {
			t.Fatalf("MarkAccepted() error = %v", err)
		}
		if err := tx.MarkCompleted(); err != nil {
			t.Fatalf("MarkCompleted() error = %v", err)
		}
	})

	t.Run("Completed is terminal", func(t *testing.T) {
		tx := newPending(t)
		_ = tx.MarkCompleted()
		if err := tx.MarkRejected(); err == nil {
			t.Error("expected illegal transition error")
		}
		if !tx.Status().IsTerminal() {
			t.Error("COMPLETED should be terminal")
		}
	})

	t.Run("Rejected cannot complete", func(t *testing.T) {
		tx := newPending(t)
		_ = tx.MarkRejected()
		if err := tx.MarkCompleted(); err == nil {
			t.Error("expected illegal transition error")
		}
	})

	t.Run("Expired cannot accept", func(t *testing.T) {
		tx := newPending(t)
		_ = tx.MarkExpired()
		if err := tx.MarkAccepted(); err == nil {
			t.Error("expected illegal transition error")
		}
	})
}

func pairForTest(t *testing.T) (*entities.Transaction, *entities.Transaction, error) {
	t.Helper()
	return entities.NewTransferPair(
		uuid.New(), uuid.New(),
		valueobjects.MustNewMoney("25.00", valueobjects.USD),
		entities.NewTransferReference(),
		time.Now().Add(24*time.Hour),
	)
}

func TestTransaction_IsExpiredAt(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute)
	tx, err := entities.NewCashOutRequest(
		uuid.New(),
		valueobjects.MustNewMoney("10.00", valueobjects.USD),
		entities.NewWithdrawalCode(),
		expiry,
	)
	if err != nil {
		t.Fatal(err)
	}

	if tx.IsExpiredAt(expiry.Add(-time.Minute)) {
		t.Error("should not be expired before the deadline")
	}
	if !tx.IsExpiredAt(expiry.Add(time.Minute)) {
		t.Error("should be expired after the deadline")
	}
}

func TestReferenceGenerators(t *testing.T) {
	hex8 := regexp.MustCompile(`^[0-9A-F]{8}$`)

	code := entities.NewWithdrawalCode()
	if !hex8.MatchString(code) {
		t.Errorf("withdrawal code %q is not 8 uppercase hex chars", code)
	}

	ref := entities.NewTransferReference()
	if !strings.HasPrefix(ref, "TRANSFER-") || !hex8.MatchString(strings.TrimPrefix(ref, "TRANSFER-")) {
		t.Errorf("transfer reference %q malformed", ref)
	}

	// Collisions across a handful of draws would indicate broken randomness.
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		c := entities.NewWithdrawalCode()
		if seen[c] {
			t.Fatalf("duplicate code generated: %s", c)
		}
		seen[c] = true
	}
}
