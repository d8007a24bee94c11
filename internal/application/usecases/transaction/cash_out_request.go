package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// CashOutRequestUseCase issues a one-time withdrawal code. The balance is NOT
// debited here - the PENDING row only reserves the code; the debit happens at
// verification time, which is also where funds are re-checked.
type CashOutRequestUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uow             ports.UnitOfWork
	expiry          time.Duration
}

// NewCashOutRequestUseCase creates the use case singleton. expiry is the
// redemption window (CASH_OUT_EXPIRY_MINUTES).
func NewCashOutRequestUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uow ports.UnitOfWork,
	expiry time.Duration,
) *CashOutRequestUseCase {
	return &CashOutRequestUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uow:             uow,
		expiry:          expiry,
	}
}

// Execute issues the code.
func (uc *CashOutRequestUseCase) Execute(ctx context.Context, cmd dtos.CashOutRequestCommand) (*dtos.CashOutRequestDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	var (
		result *dtos.CashOutRequestDTO
		buf    = events.NewBuffer()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// Lock the wallet so the funds check cannot race a concurrent debit
		// committing between the read and our insert.
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
				"cash-out amount must be greater than zero",
				errors.ErrNonPositiveAmount,
			)
		}
		if !wallet.CanDebit(amount) {
			return errors.NewDomainError(
				"INSUFFICIENT_FUNDS",
				"wallet balance does not cover the cash-out",
				errors.ErrInsufficientFunds,
			)
		}

		code := entities.NewWithdrawalCode()
		tx, err := entities.NewCashOutRequest(wallet.ID(), amount, code, time.Now().Add(uc.expiry))
		if err != nil {
			return err
		}
		if err := uc.transactionRepo.Create(txCtx, tx); err != nil {
			return err
		}

		buf.Add(events.NewCashOutRequested(tx.ID(), wallet.UserID(), wallet.PhoneNumber().Value(), amount, tx.Reference()))
		result = &dtos.CashOutRequestDTO{
			WithdrawalCode: code,
			Amount:         amount.String(),
			Currency:       wallet.Currency().Code(),
			PhoneNumber:    wallet.PhoneNumber().Value(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, uc.cache, userID)
	publishEvents(ctx, uc.notifier, buf)
	return result, nil
}
