package transaction

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
)

// Listing page defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListTransactionsUseCase pages through a user's history, newest first. The
// user matches as subject or counterparty of each row.
//
// Unfiltered pages are served from the listing cache; filtered queries always
// hit the store, since the cache is keyed by (user, page, page_size) only.
type ListTransactionsUseCase struct {
	transactionRepo ports.TransactionRepository
	cache           ports.ListingCache
}

// NewListTransactionsUseCase creates the use case singleton.
func NewListTransactionsUseCase(transactionRepo ports.TransactionRepository, cache ports.ListingCache) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{
		transactionRepo: transactionRepo,
		cache:           cache,
	}
}

// Execute returns one page of the user's transactions.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionPageDTO, error) {
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	filter := ports.TransactionFilter{
		UserID:        userID,
		CreatedAfter:  query.CreatedAfter,
		CreatedBefore: query.CreatedBefore,
	}
	if query.Type != "" {
		t := entities.TransactionType(query.Type)
		if !t.IsValid() {
			return nil, errors.ValidationError{Field: "type", Message: "unknown transaction type"}
		}
		filter.Type = &t
	}
	if query.Status != "" {
		s := entities.TransactionStatus(query.Status)
		if !s.IsValid() {
			return nil, errors.ValidationError{Field: "status", Message: "unknown transaction status"}
		}
		filter.Status = &s
	}

	cacheable := filter.Type == nil && filter.Status == nil &&
		filter.CreatedAfter == nil && filter.CreatedBefore == nil

	if cacheable {
		if payload, found, err := uc.cache.Get(ctx, userID, page, pageSize); err != nil {
			slog.WarnContext(ctx, "listing cache read failed", slog.String("error", err.Error()))
		} else if found {
			var cached dtos.TransactionPageDTO
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
			slog.WarnContext(ctx, "listing cache entry corrupt, falling through",
				slog.String("user_id", userID.String()),
			)
		}
	}

	offset := (page - 1) * pageSize
	rows, total, err := uc.transactionRepo.List(ctx, filter, offset, pageSize)
	if err != nil {
		return nil, err
	}

	result := &dtos.TransactionPageDTO{
		Transactions: dtos.ToTransactionDTOList(rows),
		TotalCount:   total,
		Page:         page,
		PageSize:     pageSize,
	}

	if cacheable {
		if payload, err := json.Marshal(result); err == nil {
			if err := uc.cache.Set(ctx, userID, page, pageSize, payload); err != nil {
				slog.WarnContext(ctx, "listing cache write failed", slog.String("error", err.Error()))
			}
		}
	}

	return result, nil
}
