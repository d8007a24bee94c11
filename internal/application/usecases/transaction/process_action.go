package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
)

// Actions accepted by ProcessActionUseCase.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// ProcessActionUseCase resolves a pending transfer from the recipient side.
//
// Accept credits the recipient and completes both legs; reject refunds the
// sender's hold and marks both legs REJECTED. Ownership of the TRANSFER_IN
// leg is re-verified here rather than trusted from upstream.
//
// Locking the two leg rows serializes accept, reject and expiry against each
// other. The legs are locked OUT then IN - the same order the expiry sweep
// takes - so a decision racing the sweep cannot deadlock. Only the wallet
// whose balance changes is row-locked.
type ProcessActionUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uow             ports.UnitOfWork
}

// NewProcessActionUseCase creates the use case singleton.
func NewProcessActionUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uow ports.UnitOfWork,
) *ProcessActionUseCase {
	return &ProcessActionUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uow:             uow,
	}
}

// Execute applies the recipient's decision.
func (uc *ProcessActionUseCase) Execute(ctx context.Context, cmd dtos.ProcessActionCommand) (*dtos.ProcessActionResultDTO, error) {
	callerID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}
	if cmd.Action != ActionAccept && cmd.Action != ActionReject {
		return nil, errors.ValidationError{Field: "action", Message: "must be 'accept' or 'reject'"}
	}

	var result *dtos.ProcessActionResultDTO
	var affected []uuid.UUID
	buf := events.NewBuffer()

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		outLeg, err := uc.transactionRepo.FindByReferenceAndTypeForUpdate(txCtx, cmd.Reference, entities.TypeTransferOut)
		if err != nil {
			return err
		}
		inLeg, err := uc.transactionRepo.FindByReferenceAndTypeForUpdate(txCtx, cmd.Reference, entities.TypeTransferIn)
		if err != nil {
			return err
		}

		recipientWallet, err := uc.walletRepo.FindByID(txCtx, inLeg.WalletID())
		if err != nil {
			return err
		}
		if recipientWallet.UserID() != callerID {
			return errors.NewDomainError(
				"NOT_OWNER",
				"only the transfer recipient may act on it",
				errors.ErrNotOwner,
			)
		}
		if !inLeg.IsPending() || !outLeg.IsPending() {
			return errors.NewDomainError(
				"NOT_PENDING",
				"transfer has already been resolved",
				errors.ErrTransactionNotPending,
			)
		}

		senderWallet, err := uc.walletRepo.FindByID(txCtx, outLeg.WalletID())
		if err != nil {
			return err
		}
		affected = []uuid.UUID{senderWallet.UserID(), recipientWallet.UserID()}

		amount := inLeg.Amount()

		switch cmd.Action {
		case ActionAccept:
			locked, err := uc.walletRepo.FindByIDForUpdate(txCtx, recipientWallet.ID())
			if err != nil {
				return err
			}
			if err := uc.walletRepo.ApplyDelta(txCtx, locked, amount); err != nil {
				return fmt.Errorf("failed to credit recipient: %w", err)
			}
			// ACCEPTED is the audit marker on the recipient leg; it is
			// superseded by COMPLETED before the unit commits.
			if err := inLeg.MarkAccepted(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, inLeg); err != nil {
				return err
			}
			if err := inLeg.MarkCompleted(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, inLeg); err != nil {
				return err
			}
			if err := outLeg.MarkCompleted(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, outLeg); err != nil {
				return err
			}

			buf.Add(events.NewTransferAccepted(outLeg.ID(), senderWallet.UserID(), senderWallet.PhoneNumber().Value(), amount, cmd.Reference))
			buf.Add(events.NewTransferAccepted(inLeg.ID(), recipientWallet.UserID(), recipientWallet.PhoneNumber().Value(), amount, cmd.Reference))
			result = &dtos.ProcessActionResultDTO{
				Message:  "Transfer accepted",
				Currency: amount.Currency().Code(),
			}

		case ActionReject:
			locked, err := uc.walletRepo.FindByIDForUpdate(txCtx, senderWallet.ID())
			if err != nil {
				return err
			}
			if err := uc.walletRepo.ApplyDelta(txCtx, locked, amount); err != nil {
				return fmt.Errorf("failed to refund sender: %w", err)
			}
			if err := inLeg.MarkRejected(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, inLeg); err != nil {
				return err
			}
			if err := outLeg.MarkRejected(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, outLeg); err != nil {
				return err
			}

			buf.Add(events.NewTransferRejected(outLeg.ID(), senderWallet.UserID(), senderWallet.PhoneNumber().Value(), amount, cmd.Reference))
			buf.Add(events.NewTransferRejected(inLeg.ID(), recipientWallet.UserID(), recipientWallet.PhoneNumber().Value(), amount, cmd.Reference))
			result = &dtos.ProcessActionResultDTO{
				Message:  "Transfer rejected",
				Currency: amount.Currency().Code(),
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, uc.cache, affected...)
	publishEvents(ctx, uc.notifier, buf)
	return result, nil
}
