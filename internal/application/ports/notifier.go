// Package ports - NotificationPublisher is the fire-and-forget sink for
// transaction notices.
package ports

import (
	"context"

	"github.com/purplewallet/walletcore/internal/domain/events"
)

// NotificationPublisher delivers domain events to the notification pipeline
// (a queue whose consumer templates and ships email/SMS).
//
// Delivery is best-effort: use cases publish strictly after their atomic
// unit commits, log failures, and never surface them to the caller.
type NotificationPublisher interface {
	// Publish delivers one event.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishAll delivers a batch, stopping at the first failure.
	PublishAll(ctx context.Context, events []events.DomainEvent) error
}
