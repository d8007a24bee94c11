// Package valueobjects contains immutable value objects that represent domain
// concepts without identity. They are compared by their values, not by identity.
package valueobjects

import (
	"errors"
	"strings"
)

// Currency represents a monetary currency code (ISO 4217).
// It's a value object - immutable and validated on creation.
type Currency struct {
	code string
}

// Predefined supported currencies.
var (
	USD = Currency{code: "USD"}
	EUR = Currency{code: "EUR"}
	GBP = Currency{code: "GBP"}
	LBP = Currency{code: "LBP"}
)

// supportedCurrencies defines the whitelist of allowed currencies.
var supportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"LBP": true,
}

// ErrInvalidCurrency is returned when an invalid currency code is provided.
var ErrInvalidCurrency = errors.New("invalid currency code")

// NewCurrency creates a new Currency value object with validation.
//
// Example:
//
//	curr, err := NewCurrency("USD")
//	if err != nil {
//	    // handle error
//	}
func NewCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if !supportedCurrencies[code] {
		return Currency{}, ErrInvalidCurrency
	}

	return Currency{code: code}, nil
}

// MustNewCurrency is a convenience function that panics on invalid input.
// Use only in initialization code where invalid input indicates a programming error.
func MustNewCurrency(code string) Currency {
	curr, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return curr
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// Equals checks if two currencies are the same.
func (c Currency) Equals(other Currency) bool {
	return c.code == other.code
}

// String implements fmt.Stringer for readable output.
func (c Currency) String() string {
	return c.code
}

// IsZero checks if this is an uninitialized currency.
// Useful for optional currency fields.
func (c Currency) IsZero() bool {
	return c.code == ""
}
