// Package postgres - UserRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	domainErrors "github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.UserRepository = (*UserRepository)(nil)

const userColumns = `id, username, email, phone_number, is_staff, created_at, updated_at`

// UserRepository implements ports.UserRepository.
//
// Thread-safe: backed by the connection pool. Transaction-aware: joins the
// transaction carried by the context when there is one.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates the repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save persists a user. UPSERT keyed by ID keeps re-syncs from the identity
// provider idempotent.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			phone_number = EXCLUDED.phone_number,
			is_staff = EXCLUDED.is_staff,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		user.ID(),
		user.Username(),
		user.Email(),
		user.PhoneNumber().Value(),
		user.IsStaff(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "users_username") {
			return domainErrors.NewDomainError(
				"USERNAME_TAKEN",
				fmt.Sprintf("username %q is already taken", user.Username()),
				domainErrors.ErrEntityAlreadyExists,
			)
		}
		if isUniqueViolation(err, "users_phone_number") {
			return domainErrors.NewDomainError(
				"DUPLICATE_PHONE",
				"phone number is bound to another user",
				domainErrors.ErrDuplicatePhone,
			)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// FindByID loads a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.QueryRow(ctx, query, id))
}

// FindByUsername resolves a transfer recipient.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(q.QueryRow(ctx, query, username))
}

// FindByPhone resolves the user behind an external funding channel.
func (r *UserRepository) FindByPhone(ctx context.Context, phone valueobjects.PhoneNumber) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	return scanUser(q.QueryRow(ctx, query, phone.Value()))
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		id                   uuid.UUID
		username, email      string
		phone                string
		isStaff              bool
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &username, &email, &phone, &isStaff, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNoSuchUser
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	phoneNumber, err := valueobjects.NewPhoneNumber(phone)
	if err != nil {
		return nil, fmt.Errorf("invalid phone number in database: %w", err)
	}

	return entities.ReconstructUser(id, username, email, phoneNumber, isStaff, createdAt, updatedAt), nil
}
