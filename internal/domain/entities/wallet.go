package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// Wallet holds a user's balance in a single declared currency.
// Exactly one wallet exists per user; the balance never goes below zero at
// any committed state.
//
// Balance mutations go through ApplyDelta while the caller holds the row
// lock for this wallet inside an open atomic unit. The entity enforces the
// non-negative invariant; the store's CHECK constraint is the backstop.
type Wallet struct {
	id          uuid.UUID
	userID      uuid.UUID
	balance     valueobjects.Money
	currency    valueobjects.Currency
	phoneNumber valueobjects.PhoneNumber
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewWallet creates a wallet with a zero balance.
//
// Business rules:
//   - One wallet per user (enforced by repository uniqueness)
//   - Phone number is globally unique across wallets (repository)
//   - New wallets start active
func NewWallet(userID uuid.UUID, phone valueobjects.PhoneNumber, currency valueobjects.Currency) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, errors.ValidationError{
			Field:   "user_id",
			Message: "user id is required",
		}
	}
	if phone.IsZero() {
		return nil, errors.ValidationError{
			Field:   "phone_number",
			Message: "phone number is required",
		}
	}
	if currency.IsZero() {
		return nil, errors.ValidationError{
			Field:   "currency",
			Message: "currency is required",
		}
	}

	now := time.Now()
	return &Wallet{
		id:          uuid.New(),
		userID:      userID,
		balance:     valueobjects.ZeroMoney(currency),
		currency:    currency,
		phoneNumber: phone,
		isActive:    true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructWallet rebuilds a Wallet from stored data. No validation.
func ReconstructWallet(
	id, userID uuid.UUID,
	balance valueobjects.Money,
	currency valueobjects.Currency,
	phone valueobjects.PhoneNumber,
	isActive bool,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:          id,
		userID:      userID,
		balance:     balance,
		currency:    currency,
		phoneNumber: phone,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the wallet's unique identifier.
func (w *Wallet) ID() uuid.UUID {
	return w.id
}

// UserID returns the owning user's identifier.
func (w *Wallet) UserID() uuid.UUID {
	return w.userID
}

// Balance returns the current balance.
func (w *Wallet) Balance() valueobjects.Money {
	return w.balance
}

// Currency returns the wallet's currency.
func (w *Wallet) Currency() valueobjects.Currency {
	return w.currency
}

// PhoneNumber returns the phone number bound to this wallet.
func (w *Wallet) PhoneNumber() valueobjects.PhoneNumber {
	return w.phoneNumber
}

// IsActive reports whether the wallet can move money.
func (w *Wallet) IsActive() bool {
	return w.isActive
}

// CreatedAt returns when the wallet was created.
func (w *Wallet) CreatedAt() time.Time {
	return w.createdAt
}

// UpdatedAt returns when the wallet was last updated.
func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// CanDebit reports whether the balance covers the given positive amount.
func (w *Wallet) CanDebit(amount valueobjects.Money) bool {
	return w.balance.GreaterThanOrEqual(amount)
}

// ApplyDelta adjusts the balance by a signed amount.
// Positive deltas credit, negative deltas debit. The caller must hold the
// row lock for this wallet.
//
// Fails with ErrInsufficientFunds when the resulting balance would be
// negative; the wallet is left unchanged on any error.
func (w *Wallet) ApplyDelta(delta valueobjects.Money) error {
	if !w.isActive {
		return errors.ErrWalletNotActive
	}

	newBalance, err := w.balance.Add(delta)
	if err != nil {
		return err
	}

	if newBalance.IsNegative() {
		return errors.NewDomainError(
			"INSUFFICIENT_FUNDS",
			"debit would overdraw the wallet",
			errors.ErrInsufficientFunds,
		)
	}

	w.balance = newBalance
	w.updatedAt = time.Now()
	return nil
}

// Deactivate freezes the wallet. Frozen wallets reject all deltas.
func (w *Wallet) Deactivate() {
	w.isActive = false
	w.updatedAt = time.Now()
}

// Activate unfreezes the wallet.
func (w *Wallet) Activate() {
	w.isActive = true
	w.updatedAt = time.Now()
}
