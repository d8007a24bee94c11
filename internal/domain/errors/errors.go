// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows clients to handle specific cases.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
)

// Caller-visible error kinds. Each maps to exactly one HTTP status in the
// adapters layer; the engine reports failures only through these.
var (
	// Entity errors
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")
	ErrNoSuchUser          = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")

	// Balance and amount errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")

	// Transfer errors
	ErrSelfTransfer          = errors.New("cannot transfer to yourself")
	ErrCurrencyMismatch      = errors.New("wallets use different currencies")
	ErrTransactionNotPending = errors.New("transaction is not in pending state")
	ErrNotOwner              = errors.New("caller does not own this transaction")

	// Cash-out errors
	ErrInvalidCode = errors.New("invalid withdrawal code")
	ErrExpired     = errors.New("transaction has expired")

	// Wallet provisioning errors
	ErrDuplicatePhone  = errors.New("phone number already bound to another wallet")
	ErrWalletNotActive = errors.New("wallet is not active")

	// Ingress errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadSignature = errors.New("invalid webhook signature")
)

// DomainError is a custom error type that wraps errors with additional context.
// This allows us to add domain-specific information while maintaining the error chain.
type DomainError struct {
	Code    string // Machine-readable error code (e.g., "INSUFFICIENT_FUNDS")
	Message string // Human-readable message
	Err     error  // Underlying error (for error chains)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents validation failures with field-level details.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // What went wrong
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(e))
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// BusinessRuleViolation represents a violation of a business rule.
// Unlike validation errors (which are about data format), these are about
// business logic: "balance would go negative" is a rule, not a format problem.
type BusinessRuleViolation struct {
	Rule    string                 // Rule that was violated (e.g., "NON_NEGATIVE_BALANCE")
	Message string                 // Human-readable explanation
	Context map[string]interface{} // Additional context (e.g., {"balance": "50.00", "attempted": "100.00"})
}

// Error implements the error interface.
func (e BusinessRuleViolation) Error() string {
	return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
}

// NewBusinessRuleViolation creates a new business rule violation error.
func NewBusinessRuleViolation(rule, message string, context map[string]interface{}) *BusinessRuleViolation {
	return &BusinessRuleViolation{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// ConcurrencyError represents errors from concurrent access (lock conflicts,
// serialization failures surfaced by the store).
type ConcurrencyError struct {
	EntityType string // e.g., "Wallet", "Transaction"
	EntityID   string // ID of the entity
	Message    string
}

// Error implements the error interface.
func (e ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error on %s [%s]: %s", e.EntityType, e.EntityID, e.Message)
}

// NewConcurrencyError creates a new concurrency error.
func NewConcurrencyError(entityType, entityID, message string) *ConcurrencyError {
	return &ConcurrencyError{
		EntityType: entityType,
		EntityID:   entityID,
		Message:    message,
	}
}

// Helper functions for common error checking

// IsNotFound checks if an error is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrNoSuchUser) ||
		errors.Is(err, ErrWalletNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var valErr ValidationError
	var valErrs ValidationErrors
	return errors.As(err, &valErr) || errors.As(err, &valErrs)
}

// IsBusinessRuleViolation checks if an error is a business rule violation.
func IsBusinessRuleViolation(err error) bool {
	var brv *BusinessRuleViolation
	return errors.As(err, &brv)
}

// IsConcurrencyError checks if an error is a concurrency error.
func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
