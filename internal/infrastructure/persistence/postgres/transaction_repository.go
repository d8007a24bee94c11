// Package postgres - TransactionRepository implementation.
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
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = `id, wallet_id, related_wallet_id, amount, currency, type, funding_source, reference, status, expiry_time, created_at, updated_at`

// TransactionRepository implements ports.TransactionRepository.
//
// Amounts are stored as positive NUMERIC(12,2) magnitudes; the semantic
// direction lives in the type column. The (reference, type) pair is unique -
// the two legs of a transfer share a reference but differ in type.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates the repository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts a ledger row.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var source *string
	if s := string(tx.FundingSource()); s != "" {
		source = &s
	}

	_, err := q.Exec(ctx, query,
		tx.ID(),
		tx.WalletID(),
		tx.RelatedWalletID(),
		tx.Amount().Decimal(),
		tx.Amount().Currency().Code(),
		string(tx.Type()),
		source,
		tx.Reference(),
		string(tx.Status()),
		tx.ExpiryTime(),
		tx.CreatedAt(),
		tx.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_reference_type") {
			return domainErrors.NewDomainError(
				"DUPLICATE_REFERENCE",
				fmt.Sprintf("reference %q is already taken", tx.Reference()),
				domainErrors.ErrEntityAlreadyExists,
			)
		}
		if isForeignKeyViolation(err) {
			return domainErrors.ErrWalletNotFound
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// FindByID loads a transaction by ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(q.QueryRow(ctx, query, id))
}

// FindByReferenceAndType loads one leg of a logical money-movement.
func (r *TransactionRepository) FindByReferenceAndType(ctx context.Context, reference string, txType entities.TransactionType) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1 AND type = $2`
	return scanTransaction(q.QueryRow(ctx, query, reference, string(txType)))
}

// FindByReferenceAndTypeForUpdate is FindByReferenceAndType under FOR UPDATE.
func (r *TransactionRepository) FindByReferenceAndTypeForUpdate(ctx context.Context, reference string, txType entities.TransactionType) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1 AND type = $2 FOR UPDATE`
	return scanTransaction(q.QueryRow(ctx, query, reference, string(txType)))
}

// FindPendingCashOutForUpdate locates the PENDING BLF_ATM withdrawal carrying
// the code, bound to the wallet with the given phone number. The lock is
// scoped to the transactions row; the caller locks the wallet separately.
func (r *TransactionRepository) FindPendingCashOutForUpdate(ctx context.Context, phone valueobjects.PhoneNumber, code string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT t.id, t.wallet_id, t.related_wallet_id, t.amount, t.currency, t.type,
		       t.funding_source, t.reference, t.status, t.expiry_time, t.created_at, t.updated_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE t.type = $1
		  AND t.funding_source = $2
		  AND t.status = $3
		  AND t.reference = $4
		  AND w.phone_number = $5
		FOR UPDATE OF t
	`

	tx, err := scanTransaction(q.QueryRow(ctx, query,
		string(entities.TypeWithdrawal),
		string(entities.SourceBLFATM),
		string(entities.StatusPending),
		entities.RefPrefixBLFATM+code,
		phone.Value(),
	))
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil, domainErrors.ErrInvalidCode
		}
		return nil, err
	}

	return tx, nil
}

// UpdateStatus persists the entity's current status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `UPDATE transactions SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := q.Exec(ctx, query, tx.ID(), string(tx.Status()), tx.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindExpiredPending scans for PENDING rows whose deadline lies before now.
// Served by the partial index on (expiry_time) WHERE status = 'PENDING'.
func (r *TransactionRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND expiry_time IS NOT NULL AND expiry_time < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := q.Query(ctx, query, string(entities.StatusPending), now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired pending transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// List pages through rows where the user owns the subject or the counterparty
// wallet, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error) {
	q := r.getQuerier(ctx)

	where := `
		WHERE (
			t.wallet_id IN (SELECT id FROM wallets WHERE user_id = $1)
			OR t.related_wallet_id IN (SELECT id FROM wallets WHERE user_id = $1)
		)
	`
	args := []interface{}{filter.UserID}
	argNum := 2

	if filter.Type != nil {
		where += fmt.Sprintf(" AND t.type = $%d", argNum)
		args = append(args, string(*filter.Type))
		argNum++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND t.status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}
	if filter.CreatedAfter != nil {
		where += fmt.Sprintf(" AND t.created_at > $%d", argNum)
		args = append(args, *filter.CreatedAfter)
		argNum++
	}
	if filter.CreatedBefore != nil {
		where += fmt.Sprintf(" AND t.created_at < $%d", argNum)
		args = append(args, *filter.CreatedBefore)
		argNum++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions t ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	pageQuery := `
		SELECT t.id, t.wallet_id, t.related_wallet_id, t.amount, t.currency, t.type,
		       t.funding_source, t.reference, t.status, t.expiry_time, t.created_at, t.updated_at
		FROM transactions t ` + where +
		fmt.Sprintf(" ORDER BY t.created_at DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, walletID         uuid.UUID
		relatedWalletID      *uuid.UUID
		amount               decimal.Decimal
		currencyCode         string
		txType               string
		fundingSource        *string
		reference, status    string
		expiryTime           *time.Time
		createdAt, updatedAt time.Time
	)

	err := row.Scan(
		&id, &walletID, &relatedWalletID, &amount, &currencyCode, &txType,
		&fundingSource, &reference, &status, &expiryTime, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}
	money, err := valueobjects.NewMoneyFromDecimal(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	var source entities.FundingSource
	if fundingSource != nil {
		source = entities.FundingSource(*fundingSource)
	}

	return entities.ReconstructTransaction(
		id, walletID, relatedWalletID,
		money,
		entities.TransactionType(txType),
		source,
		reference,
		entities.TransactionStatus(status),
		expiryTime,
		createdAt, updatedAt,
	), nil
}

func scanTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	var txs []*entities.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}
