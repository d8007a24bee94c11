package entities

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// TransactionType carries the semantic direction of a transaction.
// DEPOSIT and TRANSFER_IN credit the subject wallet; WITHDRAWAL and
// TRANSFER_OUT debit it. Amounts are stored as positive magnitudes and the
// sign is always derived from the type, never from the stored number.
type TransactionType string

const (
	TypeDeposit     TransactionType = "DEPOSIT"
	TypeWithdrawal  TransactionType = "WITHDRAWAL"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
)

// IsValid checks the type against the known set.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransferOut, TypeTransferIn:
		return true
	default:
		return false
	}
}

// IsCredit reports whether this type credits the subject wallet.
func (t TransactionType) IsCredit() bool {
	return t == TypeDeposit || t == TypeTransferIn
}

// IsDebit reports whether this type debits the subject wallet.
func (t TransactionType) IsDebit() bool {
	return t == TypeWithdrawal || t == TypeTransferOut
}

// FundingSource identifies the external channel behind a transaction.
type FundingSource string

const (
	SourcePaysend  FundingSource = "PAYSEND"
	SourceBLFATM   FundingSource = "BLF_ATM"
	SourceInternal FundingSource = "INTERNAL"
)

// IsValid checks the funding source against the known set.
// The empty value is allowed where no source is meaningful.
func (s FundingSource) IsValid() bool {
	switch s {
	case SourcePaysend, SourceBLFATM, SourceInternal, "":
		return true
	default:
		return false
	}
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusAccepted  TransactionStatus = "ACCEPTED"
	StatusRejected  TransactionStatus = "REJECTED"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusExpired   TransactionStatus = "EXPIRED"
)

// IsValid checks the status against the known set.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are legal from s.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// allowedTransitions encodes the legal state machine.
// ACCEPTED is an intermediate marker on the recipient leg of a transfer,
// written and superseded by COMPLETED inside the same atomic unit.
var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:  {StatusAccepted, StatusRejected, StatusCompleted, StatusFailed, StatusExpired},
	StatusAccepted: {StatusCompleted},
}

// Reference prefixes. A reference is globally unique per logical
// money-movement; the two legs of a transfer share one reference.
const (
	RefPrefixDeposit    = "DEPOSIT-"
	RefPrefixWithdrawal = "WITHDRAWAL-"
	RefPrefixTransfer   = "TRANSFER-"
	RefPrefixBLFATM     = "BLF-ATM-"
	RefPrefixPaysend    = "Paysend: "
)

// Transaction is one row of the ledger. For transfers it is one leg of a
// two-row pair; relatedWalletID points at the counterparty leg's wallet.
type Transaction struct {
	id              uuid.UUID
	walletID        uuid.UUID
	relatedWalletID *uuid.UUID
	amount          valueobjects.Money // positive magnitude
	txType          TransactionType
	fundingSource   FundingSource
	reference       string
	status          TransactionStatus
	expiryTime      *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// newTransaction is the common constructor behind the typed factories.
func newTransaction(
	walletID uuid.UUID,
	relatedWalletID *uuid.UUID,
	amount valueobjects.Money,
	txType TransactionType,
	source FundingSource,
	reference string,
	status TransactionStatus,
	expiry *time.Time,
) (*Transaction, error) {
	if walletID == uuid.Nil {
		return nil, errors.ValidationError{Field: "wallet_id", Message: "wallet id is required"}
	}
	if !amount.IsPositive() {
		return nil, errors.NewDomainError(
			"NON_POSITIVE_AMOUNT",
			"transaction amount must be greater than zero",
			errors.ErrNonPositiveAmount,
		)
	}
	if !txType.IsValid() {
		return nil, errors.ValidationError{Field: "type", Message: "unknown transaction type"}
	}
	if !source.IsValid() {
		return nil, errors.ValidationError{Field: "funding_source", Message: "unknown funding source"}
	}
	if strings.TrimSpace(reference) == "" {
		return nil, errors.ValidationError{Field: "reference", Message: "reference is required"}
	}

	now := time.Now()
	return &Transaction{
		id:              uuid.New(),
		walletID:        walletID,
		relatedWalletID: relatedWalletID,
		amount:          amount,
		txType:          txType,
		fundingSource:   source,
		reference:       reference,
		status:          status,
		expiryTime:      expiry,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// NewDeposit records an immediate credit. Deposits are single-shot: they are
// born COMPLETED and have no expiry.
func NewDeposit(walletID uuid.UUID, amount valueobjects.Money, source FundingSource, reference string) (*Transaction, error) {
	return newTransaction(walletID, nil, amount, TypeDeposit, source, reference, StatusCompleted, nil)
}

// NewWithdrawal records an immediate debit (non-ATM channels).
func NewWithdrawal(walletID uuid.UUID, amount valueobjects.Money, source FundingSource, reference string) (*Transaction, error) {
	return newTransaction(walletID, nil, amount, TypeWithdrawal, source, reference, StatusCompleted, nil)
}

// NewCashOutRequest records a pending ATM withdrawal bound to a one-time
// code. No funds move until the code is verified; the row only reserves the
// reference and carries the expiry deadline.
func NewCashOutRequest(walletID uuid.UUID, amount valueobjects.Money, code string, expiry time.Time) (*Transaction, error) {
	return newTransaction(walletID, nil, amount, TypeWithdrawal, SourceBLFATM, RefPrefixBLFATM+code, StatusPending, &expiry)
}

// NewTransferPair creates the two legs of a transfer sharing one reference:
// a TRANSFER_OUT on the sender wallet and a TRANSFER_IN on the recipient.
// Both start PENDING with the same expiry deadline.
func NewTransferPair(
	senderWalletID, recipientWalletID uuid.UUID,
	amount valueobjects.Money,
	reference string,
	expiry time.Time,
) (out *Transaction, in *Transaction, err error) {
	if senderWalletID == recipientWalletID {
		return nil, nil, errors.NewDomainError(
			"SELF_TRANSFER",
			"sender and recipient wallets must differ",
			errors.ErrSelfTransfer,
		)
	}

	out, err = newTransaction(senderWalletID, &recipientWalletID, amount, TypeTransferOut, SourceInternal, reference, StatusPending, &expiry)
	if err != nil {
		return nil, nil, err
	}

	in, err = newTransaction(recipientWalletID, &senderWalletID, amount, TypeTransferIn, SourceInternal, reference, StatusPending, &expiry)
	if err != nil {
		return nil, nil, err
	}

	return out, in, nil
}

// ReconstructTransaction rebuilds a Transaction from stored data. No validation.
func ReconstructTransaction(
	id, walletID uuid.UUID,
	relatedWalletID *uuid.UUID,
	amount valueobjects.Money,
	txType TransactionType,
	source FundingSource,
	reference string,
	status TransactionStatus,
	expiryTime *time.Time,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:              id,
		walletID:        walletID,
		relatedWalletID: relatedWalletID,
		amount:          amount,
		txType:          txType,
		fundingSource:   source,
		reference:       reference,
		status:          status,
		expiryTime:      expiryTime,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() uuid.UUID {
	return t.id
}

// WalletID returns the subject wallet of this leg.
func (t *Transaction) WalletID() uuid.UUID {
	return t.walletID
}

// RelatedWalletID returns the counterparty wallet, or nil when there is none.
func (t *Transaction) RelatedWalletID() *uuid.UUID {
	return t.relatedWalletID
}

// Amount returns the positive magnitude of the transaction.
func (t *Transaction) Amount() valueobjects.Money {
	return t.amount
}

// SignedAmount returns the balance delta this transaction applies to its
// subject wallet: positive for credits, negative for debits.
func (t *Transaction) SignedAmount() valueobjects.Money {
	if t.txType.IsDebit() {
		return t.amount.Negate()
	}
	return t.amount
}

// Type returns the transaction type.
func (t *Transaction) Type() TransactionType {
	return t.txType
}

// FundingSource returns the external channel, or empty when not meaningful.
func (t *Transaction) FundingSource() FundingSource {
	return t.fundingSource
}

// Reference returns the unique reference of the logical money-movement.
func (t *Transaction) Reference() string {
	return t.reference
}

// Status returns the current lifecycle state.
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// ExpiryTime returns the expiry deadline, or nil for non-expiring rows.
func (t *Transaction) ExpiryTime() *time.Time {
	return t.expiryTime
}

// CreatedAt returns when the transaction was created.
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt returns when the transaction was last updated.
func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

// IsPending reports whether the transaction awaits resolution.
func (t *Transaction) IsPending() bool {
	return t.status == StatusPending
}

// IsExpiredAt reports whether the expiry deadline has passed at the given
// instant. Rows without a deadline never expire.
func (t *Transaction) IsExpiredAt(now time.Time) bool {
	return t.expiryTime != nil && now.After(*t.expiryTime)
}

// transitionTo moves the transaction to a new status if the transition is
// legal, otherwise fails with a business rule violation.
func (t *Transaction) transitionTo(target TransactionStatus) error {
	for _, allowed := range allowedTransitions[t.status] {
		if allowed == target {
			t.status = target
			t.updatedAt = time.Now()
			return nil
		}
	}
	return errors.NewBusinessRuleViolation(
		"ILLEGAL_STATUS_TRANSITION",
		"transition not permitted by the transaction state machine",
		map[string]interface{}{"from": string(t.status), "to": string(target)},
	)
}

// MarkAccepted marks the recipient leg as acknowledged. Only meaningful on
// TRANSFER_IN rows; superseded by MarkCompleted in the same atomic unit.
func (t *Transaction) MarkAccepted() error {
	return t.transitionTo(StatusAccepted)
}

// MarkCompleted finalizes the transaction.
func (t *Transaction) MarkCompleted() error {
	return t.transitionTo(StatusCompleted)
}

// MarkRejected records a recipient rejection.
func (t *Transaction) MarkRejected() error {
	return t.transitionTo(StatusRejected)
}

// MarkFailed records a terminal failure (e.g. insufficient funds at cash-out
// verification).
func (t *Transaction) MarkFailed() error {
	return t.transitionTo(StatusFailed)
}

// MarkExpired records that the expiry deadline lapsed.
func (t *Transaction) MarkExpired() error {
	return t.transitionTo(StatusExpired)
}

// randomHex8 returns 8 uppercase hex characters of fresh randomness.
func randomHex8() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:4]))
}

// NewTransferReference generates a reference for a transfer pair.
func NewTransferReference() string {
	return RefPrefixTransfer + randomHex8()
}

// NewDepositReference generates a reference for an internally initiated deposit.
func NewDepositReference() string {
	return RefPrefixDeposit + randomHex8()
}

// NewWithdrawalReference generates a reference for an immediate withdrawal.
func NewWithdrawalReference() string {
	return RefPrefixWithdrawal + randomHex8()
}

// NewWithdrawalCode generates the 8-hex uppercase one-time code handed to the
// user at cash-out request time.
func NewWithdrawalCode() string {
	return randomHex8()
}

// PaysendReference builds the reference for a webhook-ingested deposit.
// Uniqueness on this reference is the second line of defence behind the
// idempotency store.
func PaysendReference(externalTxID string) string {
	return RefPrefixPaysend + externalTxID
}
