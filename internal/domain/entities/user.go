// Package entities contains domain entities with identity and lifecycle.
// Entities are mutable and compared by their ID, not by their attributes.
package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// User is the engine's projection of an account held by the external identity
// provider. The engine needs it for recipient lookup by username and for the
// phone/email carried on notifications; authentication itself stays outside.
type User struct {
	id          uuid.UUID
	username    string
	email       string
	phoneNumber valueobjects.PhoneNumber
	isStaff     bool
	createdAt   time.Time
	updatedAt   time.Time
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,150}$`)
)

// NewUser creates a new User with validation.
//
// Business rules:
//   - Username is required, 3-150 chars (uniqueness checked by repository)
//   - Email must be valid format
//   - Phone number must be valid (uniqueness checked by repository)
func NewUser(username, email string, phone valueobjects.PhoneNumber, isStaff bool) (*User, error) {
	username = strings.TrimSpace(username)
	if !usernameRegex.MatchString(username) {
		return nil, errors.ValidationError{
			Field:   "username",
			Message: "must be 3-150 characters of letters, digits, '_', '.' or '-'",
		}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, errors.ValidationError{
			Field:   "email",
			Message: "invalid email address",
		}
	}

	if phone.IsZero() {
		return nil, errors.ValidationError{
			Field:   "phone_number",
			Message: "phone number is required",
		}
	}

	now := time.Now()
	return &User{
		id:          uuid.New(),
		username:    username,
		email:       email,
		phoneNumber: phone,
		isStaff:     isStaff,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructUser rebuilds a User from stored data.
// Used by the repository layer to hydrate entities. No validation.
func ReconstructUser(id uuid.UUID, username, email string, phone valueobjects.PhoneNumber, isStaff bool, createdAt, updatedAt time.Time) *User {
	return &User{
		id:          id,
		username:    username,
		email:       email,
		phoneNumber: phone,
		isStaff:     isStaff,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID {
	return u.id
}

// Username returns the unique username used for transfer addressing.
func (u *User) Username() string {
	return u.username
}

// Email returns the user's email.
func (u *User) Email() string {
	return u.email
}

// PhoneNumber returns the user's phone number.
func (u *User) PhoneNumber() valueobjects.PhoneNumber {
	return u.phoneNumber
}

// IsStaff reports whether the account is a staff/back-office account.
// Staff accounts do not get wallets provisioned automatically.
func (u *User) IsStaff() bool {
	return u.isStaff
}

// CreatedAt returns when the user was created.
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated.
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}
