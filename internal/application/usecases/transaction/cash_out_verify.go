package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// CashOutVerifyUseCase redeems a withdrawal code at the counter: debit the
// wallet and complete the PENDING row, atomically.
//
// Two failure modes must leave a committed trace - an expired code moves the
// row to EXPIRED and an uncovered debit moves it to FAILED, and those writes
// must survive even though the call itself errors. The unit therefore commits
// with the status change and the domain error is returned afterwards.
type CashOutVerifyUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uow             ports.UnitOfWork
}

// NewCashOutVerifyUseCase creates the use case singleton.
func NewCashOutVerifyUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uow ports.UnitOfWork,
) *CashOutVerifyUseCase {
	return &CashOutVerifyUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uow:             uow,
	}
}

// Execute redeems the code.
func (uc *CashOutVerifyUseCase) Execute(ctx context.Context, cmd dtos.CashOutVerifyCommand) (*dtos.CashOutVerifyDTO, error) {
	phone, err := valueobjects.NewPhoneNumber(cmd.PhoneNumber)
	if err != nil {
		return nil, errors.ValidationError{Field: "phone_number", Message: err.Error()}
	}

	var (
		result  *dtos.CashOutVerifyDTO
		failure error // committed-state failure, returned after the unit commits
		ownerID uuid.UUID
		buf     = events.NewBuffer()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		tx, err := uc.transactionRepo.FindPendingCashOutForUpdate(txCtx, phone, cmd.WithdrawalCode)
		if err != nil {
			return err
		}
		wallet, err := uc.walletRepo.FindByIDForUpdate(txCtx, tx.WalletID())
		if err != nil {
			return err
		}
		ownerID = wallet.UserID()

		if tx.IsExpiredAt(time.Now()) {
			if err := tx.MarkExpired(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, tx); err != nil {
				return err
			}
			buf.Add(events.NewCashOutExpired(tx.ID(), wallet.UserID(), wallet.PhoneNumber().Value(), tx.Amount(), tx.Reference()))
			failure = errors.NewDomainError(
				"EXPIRED",
				"withdrawal code has expired",
				errors.ErrExpired,
			)
			return nil // commit the EXPIRED status
		}

		amount := tx.Amount()
		if !wallet.CanDebit(amount) {
			if err := tx.MarkFailed(); err != nil {
				return err
			}
			if err := uc.transactionRepo.UpdateStatus(txCtx, tx); err != nil {
				return err
			}
			failure = errors.NewDomainError(
				"INSUFFICIENT_FUNDS",
				"wallet balance does not cover the cash-out",
				errors.ErrInsufficientFunds,
			)
			return nil // commit the FAILED status
		}

		if err := uc.walletRepo.ApplyDelta(txCtx, wallet, amount.Negate()); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		if err := tx.MarkCompleted(); err != nil {
			return err
		}
		if err := uc.transactionRepo.UpdateStatus(txCtx, tx); err != nil {
			return err
		}

		buf.Add(events.NewCashOutVerified(tx.ID(), wallet.UserID(), wallet.PhoneNumber().Value(), amount, tx.Reference()))
		result = &dtos.CashOutVerifyDTO{
			Status:        "approved",
			Amount:        amount.String(),
			Currency:      wallet.Currency().Code(),
			TransactionID: tx.ID().String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, uc.cache, ownerID)
	publishEvents(ctx, uc.notifier, buf)

	if failure != nil {
		return nil, failure
	}
	return result, nil
}
