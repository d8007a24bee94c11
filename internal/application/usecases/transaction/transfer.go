package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
	"github.com/purplewallet/walletcore/internal/domain/events"
	"github.com/purplewallet/walletcore/internal/domain/valueobjects"
)

// TransferUseCase opens a two-phase transfer. The sender is debited at
// initiation - the amount becomes a hold released on reject/expiry or
// consumed by the recipient's accept. Both legs are written PENDING with a
// shared reference and a 24h expiry deadline. Transfers are same-currency
// only; a mismatched recipient wallet is rejected before anything is locked.
type TransferUseCase struct {
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	notifier        ports.NotificationPublisher
	cache           ports.ListingCache
	uow             ports.UnitOfWork
	expiry          time.Duration
}

// NewTransferUseCase creates the use case singleton. expiry is the window
// the recipient has to accept or reject (TRANSFER_EXPIRY_HOURS).
func NewTransferUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	notifier ports.NotificationPublisher,
	cache ports.ListingCache,
	uow ports.UnitOfWork,
	expiry time.Duration,
) *TransferUseCase {
	return &TransferUseCase{
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		cache:           cache,
		uow:             uow,
		expiry:          expiry,
	}
}

// lockPair acquires both wallet row locks in ascending wallet ID order,
// regardless of sender/recipient role. Concurrent transfers between the same
// two wallets in opposite directions therefore never deadlock.
func lockPair(ctx context.Context, repo ports.WalletRepository, a, b uuid.UUID) (first, second *entities.Wallet, err error) {
	lo, hi := a, b
	if hi.String() < lo.String() {
		lo, hi = hi, lo
	}

	loW, err := repo.FindByIDForUpdate(ctx, lo)
	if err != nil {
		return nil, nil, err
	}
	hiW, err := repo.FindByIDForUpdate(ctx, hi)
	if err != nil {
		return nil, nil, err
	}

	if loW.ID() == a {
		return loW, hiW, nil
	}
	return hiW, loW, nil
}

// Execute initiates the transfer.
func (uc *TransferUseCase) Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResultDTO, error) {
	senderID, err := uuid.Parse(cmd.SenderUserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "sender_user_id", Message: "invalid UUID"}
	}

	recipient, err := uc.userRepo.FindByUsername(ctx, cmd.RecipientUsername)
	if err != nil {
		return nil, err
	}
	if recipient.ID() == senderID {
		return nil, errors.NewDomainError(
			"SELF_TRANSFER",
			"cannot transfer to yourself",
			errors.ErrSelfTransfer,
		)
	}

	// Unlocked reads: everything rejectable without the balance is checked
	// here, before the atomic unit opens and any row lock is taken.
	senderWallet, err := uc.walletRepo.FindByUserID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipientWallet, err := uc.walletRepo.FindByUserID(ctx, recipient.ID())
	if err != nil {
		return nil, err
	}
	if !senderWallet.Currency().Equals(recipientWallet.Currency()) {
		return nil, errors.NewDomainError(
			"CURRENCY_MISMATCH",
			fmt.Sprintf("recipient wallet holds %s, not %s", recipientWallet.Currency(), senderWallet.Currency()),
			errors.ErrCurrencyMismatch,
		)
	}

	amount, err := valueobjects.NewMoney(cmd.Amount, senderWallet.Currency())
	if err != nil {
		return nil, errors.ValidationError{Field: "amount", Message: err.Error()}
	}
	if !amount.IsPositive() {
		return nil, errors.NewDomainError(
			"NON_POSITIVE_AMOUNT",
			"transfer amount must be greater than zero",
			errors.ErrNonPositiveAmount,
		)
	}

	var (
		result *dtos.TransferResultDTO
		buf    = events.NewBuffer()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		senderWallet, recipientWallet, err := lockPair(txCtx, uc.walletRepo, senderWallet.ID(), recipientWallet.ID())
		if err != nil {
			return err
		}

		if !senderWallet.CanDebit(amount) {
			return errors.NewDomainError(
				"INSUFFICIENT_FUNDS",
				"sender balance does not cover the transfer",
				errors.ErrInsufficientFunds,
			)
		}

		reference := entities.NewTransferReference()
		deadline := time.Now().Add(uc.expiry)

		out, in, err := entities.NewTransferPair(senderWallet.ID(), recipientWallet.ID(), amount, reference, deadline)
		if err != nil {
			return err
		}

		// The hold: the sender's available balance drops now, the recipient
		// is credited only on accept.
		if err := uc.walletRepo.ApplyDelta(txCtx, senderWallet, amount.Negate()); err != nil {
			return fmt.Errorf("failed to place transfer hold: %w", err)
		}
		if err := uc.transactionRepo.Create(txCtx, out); err != nil {
			return err
		}
		if err := uc.transactionRepo.Create(txCtx, in); err != nil {
			return err
		}

		buf.Add(events.NewTransferSent(out.ID(), senderWallet.UserID(), senderWallet.PhoneNumber().Value(), amount, reference))
		buf.Add(events.NewTransferReceived(in.ID(), recipientWallet.UserID(), recipientWallet.PhoneNumber().Value(), amount, reference))

		result = &dtos.TransferResultDTO{
			Message:   fmt.Sprintf("Transfer of %s %s to %s awaits acceptance", amount, senderWallet.Currency(), cmd.RecipientUsername),
			Reference: reference,
			Currency:  senderWallet.Currency().Code(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, uc.cache, senderID, recipient.ID())
	publishEvents(ctx, uc.notifier, buf)
	return result, nil
}
