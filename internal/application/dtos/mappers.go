// Package dtos - mappers converting domain entities to API representations.
package dtos

import (
	"github.com/purplewallet/walletcore/internal/domain/entities"
)

// ToUserDTO converts a User entity to its DTO.
func ToUserDTO(user *entities.User) UserDTO {
	return UserDTO{
		ID:          user.ID().String(),
		Username:    user.Username(),
		Email:       user.Email(),
		PhoneNumber: user.PhoneNumber().Value(),
		IsStaff:     user.IsStaff(),
		CreatedAt:   user.CreatedAt(),
	}
}

// ToWalletDTO converts a Wallet entity to its DTO.
func ToWalletDTO(wallet *entities.Wallet) WalletDTO {
	return WalletDTO{
		ID:          wallet.ID().String(),
		UserID:      wallet.UserID().String(),
		Balance:     wallet.Balance().String(),
		Currency:    wallet.Currency().Code(),
		PhoneNumber: wallet.PhoneNumber().Value(),
		IsActive:    wallet.IsActive(),
		CreatedAt:   wallet.CreatedAt(),
		UpdatedAt:   wallet.UpdatedAt(),
	}
}

// ToTransactionDTO converts a Transaction entity to its DTO.
func ToTransactionDTO(tx *entities.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            tx.ID().String(),
		WalletID:      tx.WalletID().String(),
		Amount:        tx.Amount().String(),
		Currency:      tx.Amount().Currency().Code(),
		Type:          string(tx.Type()),
		FundingSource: string(tx.FundingSource()),
		Reference:     tx.Reference(),
		Status:        string(tx.Status()),
		ExpiryTime:    tx.ExpiryTime(),
		CreatedAt:     tx.CreatedAt(),
		UpdatedAt:     tx.UpdatedAt(),
	}

	if related := tx.RelatedWalletID(); related != nil {
		s := related.String()
		dto.RelatedWalletID = &s
	}

	return dto
}

// ToTransactionDTOList converts a slice of transactions.
func ToTransactionDTOList(txs []*entities.Transaction) []TransactionDTO {
	result := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		result[i] = ToTransactionDTO(tx)
	}
	return result
}
