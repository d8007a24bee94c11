// Package valueobjects - Money is one of the most critical value objects in financial systems.
// It combines amount and currency to prevent common bugs like mixing currencies.
package valueobjects

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary amount with its currency.
// Amounts are fixed-point decimals rounded to 2 fractional digits;
// arithmetic never touches floating point.
//
// Value Object Pattern:
// - Immutable: All operations return new Money instances
// - Self-validating: Cannot create invalid Money
// - Type-safe: Prevents mixing currencies
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// Common domain errors for Money operations
var (
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrCurrencyMismatch = errors.New("cannot operate on different currencies")
	ErrInvalidAmount    = errors.New("invalid amount format")
)

// NewMoney creates a Money instance from a decimal string (e.g., "100.50").
// The amount is rounded half-even to 2 fractional digits.
//
// Returns error if:
//   - Currency is uninitialized
//   - Amount cannot be parsed
//
// Example:
//
//	money, err := NewMoney("100.50", USD)
func NewMoney(amountStr string, currency Currency) (Money, error) {
	if currency.IsZero() {
		return Money{}, ErrInvalidCurrency
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}

	return Money{
		amount:   amount.RoundBank(2),
		currency: currency,
	}, nil
}

// NewMoneyFromDecimal creates Money from an already-parsed decimal.
// Used by the persistence layer when hydrating from NUMERIC columns.
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency.IsZero() {
		return Money{}, ErrInvalidCurrency
	}
	return Money{amount: amount.RoundBank(2), currency: currency}, nil
}

// MustNewMoney is a convenience function that panics on invalid input.
// Use only in initialization code and tests.
func MustNewMoney(amountStr string, currency Currency) Money {
	m, err := NewMoney(amountStr, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Decimal returns the underlying decimal amount.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Currency returns the currency of this amount.
func (m Money) Currency() Currency {
	return m.currency
}

// String formats the amount with exactly 2 fractional digits, e.g. "100.50".
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// Add returns m + other. Fails if currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other. Fails if currencies differ.
// The result may be negative; callers enforce their own floor.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Negate returns the amount with the opposite sign.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equals checks amount and currency equality.
func (m Money) Equals(other Money) bool {
	return m.currency.Equals(other.currency) && m.amount.Equal(other.amount)
}

// GreaterThan reports m > other. Currencies must match; mismatch returns false.
func (m Money) GreaterThan(other Money) bool {
	return m.currency.Equals(other.currency) && m.amount.GreaterThan(other.amount)
}

// GreaterThanOrEqual reports m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.currency.Equals(other.currency) && m.amount.GreaterThanOrEqual(other.amount)
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool {
	return m.currency.Equals(other.currency) && m.amount.LessThan(other.amount)
}
