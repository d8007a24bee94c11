// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Events are collected while an atomic unit is open and published only after
// it commits; a rolled-back operation never yields a user-visible notice.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() uuid.UUID {
	return e.aggregateID
}

// Event types. The notification consumer templates an email per type; the
// NATS subject is derived from these names.
const (
	EventTypeWalletCreated    = "wallet.created"
	EventTypeDeposit          = "transaction.deposit"
	EventTypeWithdrawal       = "transaction.withdrawal"
	EventTypeTransferSent     = "transfer.sent"
	EventTypeTransferReceived = "transfer.received"
	EventTypeTransferAccepted = "transfer.accepted"
	EventTypeTransferRejected = "transfer.rejected"
	EventTypeTransferExpired  = "transfer.expired"
	EventTypeCashOutRequested = "cashout.requested"
	EventTypeCashOutVerified  = "cashout.verified"
	EventTypeCashOutExpired   = "cashout.expired"
)

// WalletCreated is raised when a new wallet is provisioned.
type WalletCreated struct {
	BaseEvent
	UserID      uuid.UUID
	PhoneNumber string
	Currency    valueobjects.Currency
}

func NewWalletCreated(walletID, userID uuid.UUID, phone valueobjects.PhoneNumber, currency valueobjects.Currency) *WalletCreated {
	return &WalletCreated{
		BaseEvent:   newBaseEvent(EventTypeWalletCreated, walletID),
		UserID:      userID,
		PhoneNumber: phone.Value(),
		Currency:    currency,
	}
}

// TransactionEvent is the common shape of all money-movement notices.
// RecipientUserID is the user the notification is addressed to; for transfer
// events one event is raised per party.
type TransactionEvent struct {
	BaseEvent
	TransactionID   uuid.UUID
	RecipientUserID uuid.UUID
	PhoneNumber     string
	Amount          valueobjects.Money
	Reference       string
}

func newTransactionEvent(
	eventType string,
	transactionID, recipientUserID uuid.UUID,
	phone string,
	amount valueobjects.Money,
	reference string,
) *TransactionEvent {
	return &TransactionEvent{
		BaseEvent:       newBaseEvent(eventType, transactionID),
		TransactionID:   transactionID,
		RecipientUserID: recipientUserID,
		PhoneNumber:     phone,
		Amount:          amount,
		Reference:       reference,
	}
}

// NewDeposit notifies the wallet owner of a completed credit.
func NewDeposit(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeDeposit, transactionID, userID, phone, amount, reference)
}

// NewWithdrawal notifies the wallet owner of a completed debit.
func NewWithdrawal(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeWithdrawal, transactionID, userID, phone, amount, reference)
}

// NewTransferSent notifies the sender that the hold was placed.
func NewTransferSent(transactionID, senderUserID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeTransferSent, transactionID, senderUserID, phone, amount, reference)
}

// NewTransferReceived notifies the recipient that a transfer awaits their
// accept/reject decision.
func NewTransferReceived(transactionID, recipientUserID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeTransferReceived, transactionID, recipientUserID, phone, amount, reference)
}

// NewTransferAccepted notifies a party that the transfer completed.
func NewTransferAccepted(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeTransferAccepted, transactionID, userID, phone, amount, reference)
}

// NewTransferRejected notifies a party that the transfer was declined and the
// hold refunded.
func NewTransferRejected(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeTransferRejected, transactionID, userID, phone, amount, reference)
}

// NewTransferExpired notifies a party that the transfer lapsed unanswered.
func NewTransferExpired(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeTransferExpired, transactionID, userID, phone, amount, reference)
}

// NewCashOutRequested notifies the wallet owner that a withdrawal code was
// issued. The code itself travels in the synchronous response, not the event.
func NewCashOutRequested(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeCashOutRequested, transactionID, userID, phone, amount, reference)
}

// NewCashOutVerified notifies the wallet owner that the code was redeemed.
func NewCashOutVerified(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeCashOutVerified, transactionID, userID, phone, amount, reference)
}

// NewCashOutExpired notifies the wallet owner that an unredeemed code lapsed.
func NewCashOutExpired(transactionID, userID uuid.UUID, phone string, amount valueobjects.Money, reference string) *TransactionEvent {
	return newTransactionEvent(EventTypeCashOutExpired, transactionID, userID, phone, amount, reference)
}

// Buffer collects events raised inside an atomic unit so the caller can
// publish them after the unit commits.
type Buffer struct {
	events []DomainEvent
}

// NewBuffer creates an empty event buffer.
func NewBuffer() *Buffer {
	return &Buffer{events: make([]DomainEvent, 0)}
}

// Add appends an event to the buffer.
func (b *Buffer) Add(event DomainEvent) {
	b.events = append(b.events, event)
}

// Drain returns all collected events and empties the buffer.
func (b *Buffer) Drain() []DomainEvent {
	out := b.events
	b.events = make([]DomainEvent, 0)
	return out
}

// Count returns the number of buffered events.
func (b *Buffer) Count() int {
	return len(b.events)
}
