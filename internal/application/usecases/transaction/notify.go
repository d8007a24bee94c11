// Package transaction holds the money-movement commands of the engine:
// deposit, withdrawal, two-phase transfer, cash-out and the expiry sweep.
//
// Every command mutates wallets and ledger rows inside one atomic unit and
// emits its notifications strictly after the unit commits, so a rolled-back
// operation never yields a user-visible notice.
package transaction

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/events"
)

// publishEvents delivers buffered events best-effort. Failures are logged
// and swallowed; notification delivery never fails a committed command.
func publishEvents(ctx context.Context, publisher ports.NotificationPublisher, buf *events.Buffer) {
	for _, ev := range buf.Drain() {
		if err := publisher.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "notification publish failed",
				slog.String("event_type", ev.EventType()),
				slog.String("event_id", ev.EventID().String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// invalidateListings purges the cached transaction pages of the affected
// users. Cache trouble is logged, not surfaced: the entries expire on their
// own TTL anyway.
func invalidateListings(ctx context.Context, cache ports.ListingCache, userIDs ...uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}
	if err := cache.InvalidateUsers(ctx, userIDs...); err != nil {
		slog.WarnContext(ctx, "listing cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}
