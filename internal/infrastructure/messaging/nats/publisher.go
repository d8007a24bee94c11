// Package nats publishes transaction notices to the notification pipeline.
// A consumer on the other side templates the email/SMS per event type.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/events"
)

// Compile-time check
var _ ports.NotificationPublisher = (*Publisher)(nil)

// SubjectPrefix is the root of the notification subject hierarchy. The event
// type is appended, e.g. wallet.notifications.transfer.received.
const SubjectPrefix = "wallet.notifications"

// Config holds the NATS connection settings.
type Config struct {
	URL  string
	Name string
}

// DefaultConfig returns settings for a local development instance.
func DefaultConfig() Config {
	return Config{
		URL:  nats.DefaultURL,
		Name: "walletcore",
	}
}

// Connect dials the NATS server with reconnect handling suited to a
// best-effort pipeline: buffered reconnect, capped retries, no panic on drop.
func Connect(cfg Config) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// Publisher implements ports.NotificationPublisher on a NATS connection.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher creates the publisher.
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// envelope is the wire shape of a notification message.
type envelope struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	AggregateID string    `json:"aggregate_id"`

	// Addressing and templating fields; present depending on event type.
	UserID      string `json:"user_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

func toEnvelope(event events.DomainEvent) envelope {
	env := envelope{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		OccurredAt:  event.OccurredAt(),
		AggregateID: event.AggregateID().String(),
	}

	switch e := event.(type) {
	case *events.WalletCreated:
		env.UserID = e.UserID.String()
		env.PhoneNumber = e.PhoneNumber
		env.Currency = e.Currency.Code()
	case *events.TransactionEvent:
		env.UserID = e.RecipientUserID.String()
		env.PhoneNumber = e.PhoneNumber
		env.Amount = e.Amount.String()
		env.Currency = e.Amount.Currency().Code()
		env.Reference = e.Reference
	}

	return env
}

// Publish delivers one event. The context is honoured up front; NATS publish
// itself is an async write into the connection's buffer.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(toEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	subject := SubjectPrefix + "." + event.EventType()
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// PublishAll delivers a batch, stopping at the first failure.
func (p *Publisher) PublishAll(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
