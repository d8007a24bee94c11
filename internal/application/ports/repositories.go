// Package ports defines the interfaces the application layer depends on.
// Implementations live in the infrastructure layer.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// UserRepository stores the engine's projection of identity-provider accounts.
type UserRepository interface {
	// Save persists a user (insert or update keyed by ID).
	Save(ctx context.Context, user *entities.User) error

	// FindByID loads a user by ID. Returns ErrNoSuchUser when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByUsername resolves a transfer recipient. Returns ErrNoSuchUser
	// when absent.
	FindByUsername(ctx context.Context, username string) (*entities.User, error)

	// FindByPhone resolves the user behind an external funding channel.
	FindByPhone(ctx context.Context, phone valueobjects.PhoneNumber) (*entities.User, error)
}

// WalletRepository stores wallets. One wallet per user; the phone number is
// globally unique across wallets.
type WalletRepository interface {
	// Create inserts a new wallet. Fails with ErrEntityAlreadyExists when the
	// user already owns one and ErrDuplicatePhone when the phone number is
	// bound to another user's wallet.
	Create(ctx context.Context, wallet *entities.Wallet) error

	// FindByID loads a wallet by ID without locking it.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByUserID loads the user's wallet. Returns ErrWalletNotFound.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)

	// FindByPhone loads the wallet bound to a phone number.
	FindByPhone(ctx context.Context, phone valueobjects.PhoneNumber) (*entities.Wallet, error)

	// FindByUserIDForUpdate loads the user's wallet under an exclusive row
	// lock. Must be called inside an open atomic unit.
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)

	// FindByIDForUpdate loads a wallet by ID under an exclusive row lock.
	// When two wallets participate in one atomic unit, callers lock them in
	// ascending wallet ID order to avoid deadlocks.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// ApplyDelta adjusts the wallet balance by a signed amount and persists
	// it. The caller must hold the row lock acquired by one of the ForUpdate
	// loaders. Fails with ErrInsufficientFunds when the result would be
	// negative; the entity and the row are left unchanged on failure.
	ApplyDelta(ctx context.Context, wallet *entities.Wallet, delta valueobjects.Money) error
}

// TransactionRepository stores ledger rows.
type TransactionRepository interface {
	// Create inserts a transaction. Fails with ErrEntityAlreadyExists when
	// the reference is already taken (reference uniqueness is the second
	// defence behind the idempotency store).
	Create(ctx context.Context, tx *entities.Transaction) error

	// FindByID loads a transaction by ID. Returns ErrEntityNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByReferenceAndType loads one leg of a logical money-movement.
	FindByReferenceAndType(ctx context.Context, reference string, txType entities.TransactionType) (*entities.Transaction, error)

	// FindByReferenceAndTypeForUpdate is FindByReferenceAndType under an
	// exclusive row lock.
	FindByReferenceAndTypeForUpdate(ctx context.Context, reference string, txType entities.TransactionType) (*entities.Transaction, error)

	// FindPendingCashOutForUpdate locates the unique PENDING BLF_ATM
	// withdrawal whose reference ends with the given code and whose wallet
	// is bound to the given phone number, locking the row. Returns
	// ErrInvalidCode when no such row exists.
	FindPendingCashOutForUpdate(ctx context.Context, phone valueobjects.PhoneNumber, code string) (*entities.Transaction, error)

	// UpdateStatus persists the entity's current status.
	UpdateStatus(ctx context.Context, tx *entities.Transaction) error

	// FindExpiredPending returns PENDING rows whose expiry deadline lies
	// before now, oldest first, capped at limit. Only expirable rows
	// (transfer legs and BLF_ATM withdrawals) are returned.
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entities.Transaction, error)

	// List returns rows where the user owns the subject wallet or the
	// counterparty wallet, newest first, with the total match count.
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error)
}

// TransactionFilter narrows List results.
type TransactionFilter struct {
	UserID        uuid.UUID // required; matches subject or counterparty wallet owner
	Type          *entities.TransactionType
	Status        *entities.TransactionStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
