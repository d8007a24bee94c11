// Package dtos - commands, queries and response shapes crossing the
// application boundary.
package dtos

import "time"

// ============================================
// Commands (write operations)
// ============================================

// RegisterUserCommand provisions a user projection and, for non-staff
// accounts, a wallet in the same atomic unit.
type RegisterUserCommand struct {
	Username     string `json:"username" validate:"required,min=3,max=150"`
	Email        string `json:"email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	IsStaff      bool   `json:"is_staff"`
	CurrencyCode string `json:"currency_code" validate:"omitempty,len=3"` // defaults to USD
}

// CreateWalletCommand provisions a wallet for an existing user.
// Idempotent: re-issuing it for a user who already has a wallet fails with
// AlreadyExists, which observers treat as success.
type CreateWalletCommand struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	CurrencyCode string `json:"currency_code" validate:"omitempty,len=3"`
}

// DepositCommand credits the wallet bound to a phone number.
// Reference must be unique per logical money-movement.
type DepositCommand struct {
	PhoneNumber   string `json:"phone_number" validate:"required"`
	Amount        string `json:"amount" validate:"required"` // decimal string: "60.00"
	FundingSource string `json:"funding_source" validate:"required,oneof=PAYSEND BLF_ATM INTERNAL"`
	Reference     string `json:"reference" validate:"required"`
}

// WithdrawCommand debits the caller's wallet immediately (non-ATM channels).
type WithdrawCommand struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Amount string `json:"amount" validate:"required"`
}

// TransferCommand opens a two-phase transfer: the sender is debited now,
// the recipient is credited on accept.
type TransferCommand struct {
	SenderUserID      string `json:"sender_user_id" validate:"required,uuid"`
	RecipientUsername string `json:"recipient_username" validate:"required"`
	Amount            string `json:"amount" validate:"required"`
}

// ProcessActionCommand resolves a pending transfer from the recipient side.
type ProcessActionCommand struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	Action    string `json:"action" validate:"required,oneof=accept reject"`
	Reference string `json:"reference" validate:"required"`
}

// CashOutRequestCommand issues a one-time withdrawal code. No funds move
// until the code is verified at the ATM.
type CashOutRequestCommand struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Amount string `json:"amount" validate:"required"`
}

// CashOutVerifyCommand redeems a withdrawal code over the counter.
type CashOutVerifyCommand struct {
	PhoneNumber    string `json:"phone_number" validate:"required"`
	WithdrawalCode string `json:"withdrawal_code" validate:"required,len=8"`
}

// ============================================
// Queries (read operations)
// ============================================

// GetWalletQuery loads the caller's wallet with its balance.
type GetWalletQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ============================================
// Response DTOs
// ============================================

// UserDTO is the API representation of a user.
type UserDTO struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	IsStaff     bool      `json:"is_staff"`
	CreatedAt   time.Time `json:"created_at"`
}

// WalletDTO is the API representation of a wallet.
type WalletDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Balance     string    `json:"balance"` // decimal string: "100.50"
	Currency    string    `json:"currency"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterUserDTO bundles the user with the wallet provisioned for it.
// Wallet is nil for staff accounts.
type RegisterUserDTO struct {
	User   UserDTO    `json:"user"`
	Wallet *WalletDTO `json:"wallet,omitempty"`
}

// TransferResultDTO acknowledges transfer initiation.
type TransferResultDTO struct {
	Message   string `json:"message"`
	Reference string `json:"reference"`
	Currency  string `json:"currency"`
}

// ProcessActionResultDTO acknowledges an accept/reject decision.
type ProcessActionResultDTO struct {
	Message  string `json:"message"`
	Currency string `json:"currency"`
}

// CashOutRequestDTO returns the bearer code to the requesting user.
type CashOutRequestDTO struct {
	WithdrawalCode string `json:"withdrawal_code"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	PhoneNumber    string `json:"phone_number"`
}

// CashOutVerifyDTO acknowledges a successful redemption.
type CashOutVerifyDTO struct {
	Status        string `json:"status"` // always "approved"
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

// DepositResultDTO acknowledges a processed deposit.
type DepositResultDTO struct {
	Status        string `json:"status"` // "processed"
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}
