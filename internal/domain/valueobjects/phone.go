package valueobjects

import (
	"errors"
	"regexp"
	"strings"
)

// PhoneNumber identifies the wallet owner towards external funding channels
// (Paysend deposits address wallets by phone, ATM cash-outs verify against it).
// Stored in international format without the leading "+", e.g. "96170123456".
type PhoneNumber struct {
	value string
}

// ErrInvalidPhoneNumber is returned when a phone number fails validation.
var ErrInvalidPhoneNumber = errors.New("invalid phone number")

var phoneRegex = regexp.MustCompile(`^[0-9]{6,15}$`)

// NewPhoneNumber validates and normalizes a phone number.
// Accepts an optional leading "+" and strips spaces and dashes.
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "+")
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "-", "")

	if !phoneRegex.MatchString(v) {
		return PhoneNumber{}, ErrInvalidPhoneNumber
	}

	return PhoneNumber{value: v}, nil
}

// MustNewPhoneNumber panics on invalid input. Use only in tests.
func MustNewPhoneNumber(raw string) PhoneNumber {
	p, err := NewPhoneNumber(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the normalized phone number.
func (p PhoneNumber) Value() string {
	return p.value
}

// String implements fmt.Stringer.
func (p PhoneNumber) String() string {
	return p.value
}

// Equals compares two phone numbers by value.
func (p PhoneNumber) Equals(other PhoneNumber) bool {
	return p.value == other.value
}

// IsZero checks if this is an uninitialized phone number.
func (p PhoneNumber) IsZero() bool {
	return p.value == ""
}
