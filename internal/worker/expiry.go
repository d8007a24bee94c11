// Package worker runs the background jobs of the service. The only job today
// is the pending-transfer expiry sweep.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
)

// ExpirePendingUseCase runs one expiry sweep and reports how many rows it
// expired.
type ExpirePendingUseCase interface {
	Execute(ctx context.Context) (int, error)
}

// ExpiryWorker periodically expires pending transfers whose acceptance window
// has lapsed. The sweep itself is safe to run concurrently with API traffic;
// row locks inside the use case serialize it against accept and reject.
type ExpiryWorker struct {
	expire ExpirePendingUseCase
	period time.Duration
	logger *slog.Logger
}

// NewExpiryWorker creates the worker. period is EXPIRY_WORKER_PERIOD.
func NewExpiryWorker(expire ExpirePendingUseCase, period time.Duration, logger *slog.Logger) *ExpiryWorker {
	if period <= 0 {
		period = 6 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpiryWorker{
		expire: expire,
		period: period,
		logger: logger,
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (w *ExpiryWorker) Run(ctx context.Context) {
	w.logger.Info("expiry worker started", slog.Duration("period", w.period))

	w.sweep(ctx)

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	middleware.TransferExpirySweeps.WithLabelValues("run").Inc()

	expired, err := w.expire.Execute(ctx)
	if err != nil {
		middleware.TransferExpirySweeps.WithLabelValues("error").Inc()
		w.logger.Error("expiry sweep failed", slog.String("error", err.Error()))
		return
	}

	if expired > 0 {
		middleware.TransferExpirySweeps.WithLabelValues("expired").Add(float64(expired))
		w.logger.Info("expiry sweep complete", slog.Int("expired", expired))
	}
}
