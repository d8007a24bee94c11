package dtos

import "time"

// ============================================
// Queries (read operations)
// ============================================

// ListTransactionsQuery pages through a user's transactions, newest first.
// The user matches as subject or counterparty of each row.
type ListTransactionsQuery struct {
	UserID        string     `json:"user_id" validate:"required,uuid"`
	Type          string     `json:"type" validate:"omitempty,oneof=DEPOSIT WITHDRAWAL TRANSFER_OUT TRANSFER_IN"`
	Status        string     `json:"status" validate:"omitempty,oneof=PENDING ACCEPTED REJECTED COMPLETED FAILED EXPIRED"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	Page          int        `json:"page" validate:"min=1"`
	PageSize      int        `json:"page_size" validate:"min=1,max=100"`
}

// GetTransactionQuery loads a single transaction the caller participates in.
type GetTransactionQuery struct {
	UserID        string `json:"user_id" validate:"required,uuid"`
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
}

// ============================================
// Response DTOs
// ============================================

// TransactionDTO is the API representation of a ledger row.
// Amount is a positive magnitude; direction is carried by Type.
type TransactionDTO struct {
	ID              string     `json:"id"`
	WalletID        string     `json:"wallet_id"`
	RelatedWalletID *string    `json:"related_wallet_id,omitempty"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Type            string     `json:"type"`
	FundingSource   string     `json:"funding_source,omitempty"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	ExpiryTime      *time.Time `json:"expiry_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TransactionPageDTO is one page of a user's transaction history.
type TransactionPageDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	TotalCount   int              `json:"total_count"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
}
