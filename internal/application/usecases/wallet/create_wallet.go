// Package wallet holds the wallet provisioning and balance-view use cases.
package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// CreateWalletUseCase provisions the user's single wallet. The operation is
// idempotent from the observer's point of view: a second call fails with
// AlreadyExists, which the wallet-auto-creation observer treats as success.
type CreateWalletUseCase struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	notifier   ports.NotificationPublisher
	uow        ports.UnitOfWork
}

// NewCreateWalletUseCase creates the use case singleton.
func NewCreateWalletUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	notifier ports.NotificationPublisher,
	uow ports.UnitOfWork,
) *CreateWalletUseCase {
	return &CreateWalletUseCase{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		notifier:   notifier,
		uow:        uow,
	}
}

// Execute provisions the wallet.
func (uc *CreateWalletUseCase) Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	currency := valueobjects.USD
	if cmd.CurrencyCode != "" {
		currency, err = valueobjects.NewCurrency(cmd.CurrencyCode)
		if err != nil {
			return nil, errors.ValidationError{Field: "currency_code", Message: err.Error()}
		}
	}

	var (
		result *dtos.WalletDTO
		buf    = events.NewBuffer()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		user, err := uc.userRepo.FindByID(txCtx, userID)
		if err != nil {
			return err
		}

		wallet, err := entities.NewWallet(user.ID(), user.PhoneNumber(), currency)
		if err != nil {
			return err
		}

		// The uniqueness constraints are the gate: a racing create loses with
		// AlreadyExists, not a second wallet.
		if err := uc.walletRepo.Create(txCtx, wallet); err != nil {
			return err
		}

		buf.Add(events.NewWalletCreated(wallet.ID(), user.ID(), wallet.PhoneNumber(), currency))
		dto := dtos.ToWalletDTO(wallet)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, uc.notifier, buf)
	return result, nil
}
