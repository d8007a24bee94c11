package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/events"
)

// ExpirePendingUseCase is the expiry sweep entry point: it resolves PENDING
// rows whose deadline has lapsed. TRANSFER_OUT legs drive transfer expiry -
// the sender is refunded and both legs go EXPIRED; BLF_ATM withdrawals go
// EXPIRED with no refund since no debit ever occurred.
//
// Each row runs in its own atomic unit so one bad row cannot abort the batch.
type ExpirePendingUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uowFactory      ports.UnitOfWorkFactory
	batchSize       int
}

// NewExpirePendingUseCase creates the use case singleton. batchSize caps the
// rows handled per sweep.
func NewExpirePendingUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uowFactory ports.UnitOfWorkFactory,
	batchSize int,
) *ExpirePendingUseCase {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ExpirePendingUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uowFactory:      uowFactory,
		batchSize:       batchSize,
	}
}

// Execute runs one sweep and returns the number of rows it expired.
func (uc *ExpirePendingUseCase) Execute(ctx context.Context) (int, error) {
	now := time.Now()
	candidates, err := uc.transactionRepo.FindExpiredPending(ctx, now, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired pending rows: %w", err)
	}

	expired := 0
	for _, row := range candidates {
		// The OUT leg drives transfer expiry; an IN leg in the scan either has
		// its partner in the same batch or is picked up next sweep.
		if row.Type() == entities.TypeTransferIn {
			continue
		}

		var err error
		switch {
		case row.Type() == entities.TypeTransferOut:
			err = uc.expireTransfer(ctx, row.Reference())
		case row.Type() == entities.TypeWithdrawal && row.FundingSource() == entities.SourceBLFATM:
			err = uc.expireCashOut(ctx, row.Reference())
		default:
			slog.WarnContext(ctx, "unexpirable row in expiry scan, skipping",
				slog.String("transaction_id", row.ID().String()),
				slog.String("type", string(row.Type())),
			)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to expire transaction",
				slog.String("transaction_id", row.ID().String()),
				slog.String("reference", row.Reference()),
				slog.String("error", err.Error()),
			)
			continue
		}
		expired++
	}

	return expired, nil
}

// expireTransfer refunds the sender's hold and marks both legs EXPIRED.
func (uc *ExpirePendingUseCase) expireTransfer(ctx context.Context, reference string) error {
	var affected []uuid.UUID
	buf := events.NewBuffer()

	err := uc.uowFactory.New().Execute(ctx, func(txCtx context.Context) error {
		outLeg, err := uc.transactionRepo.FindByReferenceAndTypeForUpdate(txCtx, reference, entities.TypeTransferOut)
		if err != nil {
			return err
		}
		// An accept or reject may have won the race since the scan.
		if !outLeg.IsPending() {
			return nil
		}
		inLeg, err := uc.transactionRepo.FindByReferenceAndTypeForUpdate(txCtx, reference, entities.TypeTransferIn)
		if err != nil {
			return err
		}

		sender, err := uc.walletRepo.FindByIDForUpdate(txCtx, outLeg.WalletID())
		if err != nil {
			return err
		}
		if err := uc.walletRepo.ApplyDelta(txCtx, sender, outLeg.Amount()); err != nil {
			return fmt.Errorf("failed to refund transfer hold: %w", err)
		}

		if err := outLeg.MarkExpired(); err != nil {
			return err
		}
		if err := uc.transactionRepo.UpdateStatus(txCtx, outLeg); err != nil {
			return err
		}
		if err := inLeg.MarkExpired(); err != nil {
			return err
		}
		if err := uc.transactionRepo.UpdateStatus(txCtx, inLeg); err != nil {
			return err
		}

		recipient, err := uc.walletRepo.FindByID(txCtx, inLeg.WalletID())
		if err != nil {
			return err
		}

		affected = []uuid.UUID{sender.UserID(), recipient.UserID()}
		buf.Add(events.NewTransferExpired(outLeg.ID(), sender.UserID(), sender.PhoneNumber().Value(), outLeg.Amount(), reference))
		buf.Add(events.NewTransferExpired(inLeg.ID(), recipient.UserID(), recipient.PhoneNumber().Value(), inLeg.Amount(), reference))
		return nil
	})
	if err != nil {
		return err
	}

	invalidateListings(ctx, uc.cache, affected...)
	publishEvents(ctx, uc.notifier, buf)
	return nil
}

// expireCashOut marks an unredeemed withdrawal code EXPIRED.
func (uc *ExpirePendingUseCase) expireCashOut(ctx context.Context, reference string) error {
	var ownerID uuid.UUID
	buf := events.NewBuffer()

	err := uc.uowFactory.New().Execute(ctx, func(txCtx context.Context) error {
		row, err := uc.transactionRepo.FindByReferenceAndTypeForUpdate(txCtx, reference, entities.TypeWithdrawal)
		if err != nil {
			return err
		}
		// A verification may have won the race since the scan.
		if !row.IsPending() {
			return nil
		}

		if err := row.MarkExpired(); err != nil {
			return err
		}
		if err := uc.transactionRepo.UpdateStatus(txCtx, row); err != nil {
			return err
		}

		wallet, err := uc.walletRepo.FindByID(txCtx, row.WalletID())
		if err != nil {
			return err
		}
		ownerID = wallet.UserID()
		buf.Add(events.NewCashOutExpired(row.ID(), wallet.UserID(), wallet.PhoneNumber().Value(), row.Amount(), reference))
		return nil
	})
	if err != nil {
		return err
	}

	if ownerID != uuid.Nil {
		invalidateListings(ctx, uc.cache, ownerID)
	}
	publishEvents(ctx, uc.notifier, buf)
	return nil
}
