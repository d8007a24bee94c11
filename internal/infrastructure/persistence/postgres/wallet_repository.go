// Package postgres - WalletRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	domainErrors "github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

const walletColumns = `id, user_id, balance, currency, phone_number, is_active, created_at, updated_at`

// WalletRepository implements ports.WalletRepository.
//
// Balances are NUMERIC(12,2); the balance_non_negative CHECK constraint is
// the last line of defence behind the entity's own invariant.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates the repository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts a new wallet. The one-wallet-per-user and unique-phone rules
// are enforced by the wallets_user_id_key and wallets_phone_number_key
// constraints.
func (r *WalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.Balance().Decimal(),
		wallet.Currency().Code(),
		wallet.PhoneNumber().Value(),
		wallet.IsActive(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "wallets_user_id") {
			return domainErrors.NewDomainError(
				"WALLET_ALREADY_EXISTS",
				"user already owns a wallet",
				domainErrors.ErrEntityAlreadyExists,
			)
		}
		if isUniqueViolation(err, "wallets_phone_number") {
			return domainErrors.NewDomainError(
				"DUPLICATE_PHONE",
				"phone number is bound to another wallet",
				domainErrors.ErrDuplicatePhone,
			)
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError("NO_SUCH_USER", "user not found", domainErrors.ErrNoSuchUser)
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}

// FindByID loads a wallet without locking.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// FindByUserID loads the user's wallet.
func (r *WalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.scanWallet(q.QueryRow(ctx, query, userID))
}

// FindByPhone loads the wallet bound to a phone number.
func (r *WalletRepository) FindByPhone(ctx context.Context, phone valueobjects.PhoneNumber) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE phone_number = $1`
	return r.scanWallet(q.QueryRow(ctx, query, phone.Value()))
}

// FindByUserIDForUpdate loads the user's wallet under FOR UPDATE.
func (r *WalletRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.scanWallet(q.QueryRow(ctx, query, userID))
}

// FindByIDForUpdate loads a wallet under FOR UPDATE.
func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// ApplyDelta mutates the entity (which enforces the non-negative invariant)
// and persists the new balance. The caller holds the row lock, so writing the
// entity's balance verbatim is safe.
func (r *WalletRepository) ApplyDelta(ctx context.Context, wallet *entities.Wallet, delta valueobjects.Money) error {
	if err := wallet.ApplyDelta(delta); err != nil {
		return err
	}

	q := r.getQuerier(ctx)

	query := `UPDATE wallets SET balance = $2, updated_at = $3 WHERE id = $1`
	result, err := q.Exec(ctx, query, wallet.ID(), wallet.Balance().Decimal(), wallet.UpdatedAt())
	if err != nil {
		if isCheckViolation(err, "balance_non_negative") {
			return domainErrors.NewDomainError(
				"INSUFFICIENT_FUNDS",
				"debit would overdraw the wallet",
				domainErrors.ErrInsufficientFunds,
			)
		}
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrWalletNotFound
	}

	return nil
}

func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, userID           uuid.UUID
		balance              decimal.Decimal
		currencyCode, phone  string
		isActive             bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &userID, &balance, &currencyCode, &phone, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}
	money, err := valueobjects.NewMoneyFromDecimal(balance, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in database: %w", err)
	}
	phoneNumber, err := valueobjects.NewPhoneNumber(phone)
	if err != nil {
		return nil, fmt.Errorf("invalid phone number in database: %w", err)
	}

	return entities.ReconstructWallet(id, userID, money, currency, phoneNumber, isActive, createdAt, updatedAt), nil
}
