// Package user holds the user-projection use cases.
package user

import (
	"context"
	"log/slog"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// RegisterUserUseCase records a user projection and, for non-staff accounts,
// provisions the wallet in the same atomic unit. This mirrors the identity
// provider's post-signup hook: the wallet must exist by the time the signup
// response reaches the client.
type RegisterUserUseCase struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	notifier   ports.NotificationPublisher
	uow        ports.UnitOfWork
}

// NewRegisterUserUseCase creates the use case singleton.
func NewRegisterUserUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	notifier ports.NotificationPublisher,
	uow ports.UnitOfWork,
) *RegisterUserUseCase {
	return &RegisterUserUseCase{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		notifier:   notifier,
		uow:        uow,
	}
}

// Execute registers the user.
func (uc *RegisterUserUseCase) Execute(ctx context.Context, cmd dtos.RegisterUserCommand) (*dtos.RegisterUserDTO, error) {
	phone, err := valueobjects.NewPhoneNumber(cmd.PhoneNumber)
	if err != nil {
		return nil, errors.ValidationError{Field: "phone_number", Message: err.Error()}
	}

	currency := valueobjects.USD
	if cmd.CurrencyCode != "" {
		currency, err = valueobjects.NewCurrency(cmd.CurrencyCode)
		if err != nil {
			return nil, errors.ValidationError{Field: "currency_code", Message: err.Error()}
		}
	}

	user, err := entities.NewUser(cmd.Username, cmd.Email, phone, cmd.IsStaff)
	if err != nil {
		return nil, err
	}

	var (
		result *dtos.RegisterUserDTO
		buf    = events.NewBuffer()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return err
		}

		result = &dtos.RegisterUserDTO{User: dtos.ToUserDTO(user)}

		// Staff accounts are back-office logins; they never hold funds.
		if user.IsStaff() {
			return nil
		}

		wallet, err := entities.NewWallet(user.ID(), user.PhoneNumber(), currency)
		if err != nil {
			return err
		}
		if err := uc.walletRepo.Create(txCtx, wallet); err != nil {
			return err
		}

		buf.Add(events.NewWalletCreated(wallet.ID(), user.ID(), wallet.PhoneNumber(), currency))
		dto := dtos.ToWalletDTO(wallet)
		result.Wallet = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range buf.Drain() {
		if err := uc.notifier.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "notification publish failed",
				slog.String("event_type", ev.EventType()),
				slog.String("error", err.Error()),
			)
		}
	}
	return result, nil
}
