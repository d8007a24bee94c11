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
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// WithdrawUseCase debits the caller's wallet immediately. Fails with
// InsufficientFunds before any row is written.
type WithdrawUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uow             ports.UnitOfWork
}

// NewWithdrawUseCase creates the use case singleton.
func NewWithdrawUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uow ports.UnitOfWork,
) *WithdrawUseCase {
	return &WithdrawUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uow:             uow,
	}
}

// Execute performs the withdrawal.
func (uc *WithdrawUseCase) Execute(ctx context.Context, cmd dtos.WithdrawCommand) (*dtos.TransactionDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	var (
		result *dtos.TransactionDTO
		buf    = events.NewBuffer()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		wallet, err := uc.walletRepo.FindByUserIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		amount, err := valueobjects.NewMoney(cmd.Amount, wallet.Currency())
		if err != nil {
			return errors.ValidationError{Field: "amount", Message: err.Error()}
		}
		if !amount.IsPositive() {
			return errors.NewDomainError(
				"NON_POSITIVE_AMOUNT",
				"withdrawal amount must be greater than zero",
				errors.ErrNonPositiveAmount,
			)
		}

		if !wallet.CanDebit(amount) {
			return errors.NewDomainError(
				"INSUFFICIENT_FUNDS",
				"wallet balance does not cover the withdrawal",
				errors.ErrInsufficientFunds,
			)
		}

		tx, err := entities.NewWithdrawal(wallet.ID(), amount, entities.SourceInternal, entities.NewWithdrawalReference())
		if err != nil {
			return err
		}

		if err := uc.walletRepo.ApplyDelta(txCtx, wallet, amount.Negate()); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		if err := uc.transactionRepo.Create(txCtx, tx); err != nil {
			return err
		}

		buf.Add(events.NewWithdrawal(tx.ID(), wallet.UserID(), wallet.PhoneNumber().Value(), amount, tx.Reference()))
		dto := dtos.ToTransactionDTO(tx)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, uc.cache, userID)
	publishEvents(ctx, uc.notifier, buf)
	return result, nil
}
