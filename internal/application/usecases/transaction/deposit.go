package transaction

import (
	"context"
	"fmt"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// DepositUseCase credits the wallet bound to a phone number in one atomic
// unit: lock wallet, apply the positive delta, insert a COMPLETED DEPOSIT
// row. There is no state machine - deposits are single-shot.
type DepositUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uow             ports.UnitOfWork
}

// NewDepositUseCase creates the use case singleton.
func NewDepositUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uow ports.UnitOfWork,
) *DepositUseCase {
	return &DepositUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uow:             uow,
	}
}

// Execute performs the deposit.
func (uc *DepositUseCase) Execute(ctx context.Context, cmd dtos.DepositCommand) (*dtos.DepositResultDTO, error) {
	phone, err := valueobjects.NewPhoneNumber(cmd.PhoneNumber)
	if err != nil {
		return nil, errors.ValidationError{Field: "phone_number", Message: err.Error()}
	}

	source := entities.FundingSource(cmd.FundingSource)
	if !source.IsValid() || source == "" {
		return nil, errors.ValidationError{Field: "funding_source", Message: "unknown funding source"}
	}

	var (
		result *dtos.DepositResultDTO
		buf    = events.NewBuffer()
		owner  *entities.Wallet
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		wallet, err := uc.walletRepo.FindByPhone(txCtx, phone)
		if err != nil {
			return err
		}

		// Re-load under the row lock; the unlocked read only resolved the id.
		wallet, err = uc.walletRepo.FindByIDForUpdate(txCtx, wallet.ID())
		if err != nil {
			return err
		}
		owner = wallet

		amount, err := valueobjects.NewMoney(cmd.Amount, wallet.Currency())
		if err != nil {
			return errors.ValidationError{Field: "amount", Message: err.Error()}
		}
		if !amount.IsPositive() {
			return errors.NewDomainError(
				"NON_POSITIVE_AMOUNT",
				"deposit amount must be greater than zero",
				errors.ErrNonPositiveAmount,
			)
		}

		tx, err := entities.NewDeposit(wallet.ID(), amount, source, cmd.Reference)
		if err != nil {
			return err
		}

		if err := uc.walletRepo.ApplyDelta(txCtx, wallet, amount); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		if err := uc.transactionRepo.Create(txCtx, tx); err != nil {
			return err
		}

		buf.Add(events.NewDeposit(tx.ID(), wallet.UserID(), phone.Value(), amount, tx.Reference()))
		result = &dtos.DepositResultDTO{
			Status:        "processed",
			Currency:      wallet.Currency().Code(),
			TransactionID: tx.ID().String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, uc.cache, owner.UserID())
	publishEvents(ctx, uc.notifier, buf)
	return result, nil
}
