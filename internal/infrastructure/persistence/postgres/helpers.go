// Package postgres - shared helpers for transaction plumbing and error
// classification.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// the same queries inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey carries the open transaction through the context.
type txKey struct{}

// injectTx stores the transaction in the context for repositories to pick up.
func injectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// extractTx returns the transaction from the context, or nil.
func extractTx(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil
	}
	return tx
}

// hasTx reports whether the context carries an open transaction.
func hasTx(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

// PostgreSQL error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"

	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isPgError(err error, code string) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == code
}

// isUniqueViolation reports a UNIQUE constraint violation, optionally
// narrowed to a constraint whose name contains constraintName.
func isUniqueViolation(err error, constraintName string) bool {
	pgErr, ok := asPgError(err)
	if !ok || pgErr.Code != pgUniqueViolation {
		return false
	}
	if constraintName != "" {
		return strings.Contains(pgErr.ConstraintName, constraintName)
	}
	return true
}

// isCheckViolation reports a CHECK constraint violation, optionally narrowed
// by constraint name.
func isCheckViolation(err error, constraintName string) bool {
	pgErr, ok := asPgError(err)
	if !ok || pgErr.Code != pgCheckViolation {
		return false
	}
	if constraintName != "" {
		return strings.Contains(pgErr.ConstraintName, constraintName)
	}
	return true
}

func isForeignKeyViolation(err error) bool {
	return isPgError(err, pgForeignKeyViolation)
}

func isSerializationFailure(err error) bool {
	return isPgError(err, pgSerializationFailure) || isPgError(err, pgDeadlockDetected)
}

// isRetryableError reports whether re-running the transaction can succeed:
// serialization failures, deadlocks and connection drops.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if isSerializationFailure(err) {
		return true
	}
	if pgErr, ok := asPgError(err); ok {
		// Class 08 - connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}
