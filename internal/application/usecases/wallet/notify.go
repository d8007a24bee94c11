package wallet

import (
	"context"
	"log/slog"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/events"
)

// publishEvents delivers buffered events best-effort after commit. Failures
// are logged and swallowed.
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
