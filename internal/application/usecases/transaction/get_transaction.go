package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/errors"
)

// GetTransactionUseCase loads one transaction the caller participates in,
// either as owner of the subject wallet or of the counterparty wallet.
type GetTransactionUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
}

// NewGetTransactionUseCase creates the use case singleton.
func NewGetTransactionUseCase(walletRepo ports.WalletRepository, transactionRepo ports.TransactionRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute returns the transaction, or ErrNotOwner when the caller is neither
// party to it.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error) {
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}
	txID, err := uuid.Parse(query.TransactionID)
	if err != nil {
		return nil, errors.ValidationError{Field: "transaction_id", Message: "invalid UUID"}
	}

	tx, err := uc.transactionRepo.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	participant, err := uc.ownsWallet(ctx, userID, tx.WalletID())
	if err != nil {
		return nil, err
	}
	if !participant {
		if related := tx.RelatedWalletID(); related != nil {
			participant, err = uc.ownsWallet(ctx, userID, *related)
			if err != nil {
				return nil, err
			}
		}
	}
	if !participant {
		return nil, errors.NewDomainError(
			"FORBIDDEN",
			"transaction belongs to another user",
			errors.ErrNotOwner,
		)
	}

	dto := dtos.ToTransactionDTO(tx)
	return &dto, nil
}

func (uc *GetTransactionUseCase) ownsWallet(ctx context.Context, userID, walletID uuid.UUID) (bool, error) {
	wallet, err := uc.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return wallet.UserID() == userID, nil
}
