package transaction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/domain/entities"
	"github.com/purplewallet/walletcore/internal/domain/errors"
)

// IngestDepositWebhookUseCase turns an external deposit notification into a
// ledger credit. Signature and source-IP checks happen at the HTTP edge; this
// layer owns the idempotency wrap and the status filter.
//
// Replays are answered from the idempotency store with the original response
// body; the unique "Paysend: "+externalTxId reference is the backstop should
// the store lose an entry.
type IngestDepositWebhookUseCase struct {
	deposit     *DepositUseCase
	idempotency ports.IdempotencyStore
}

// NewIngestDepositWebhookUseCase creates the use case singleton.
func NewIngestDepositWebhookUseCase(deposit *DepositUseCase, idempotency ports.IdempotencyStore) *IngestDepositWebhookUseCase {
	return &IngestDepositWebhookUseCase{
		deposit:     deposit,
		idempotency: idempotency,
	}
}

// Execute processes one notification. The returned bytes are the JSON body to
// answer with - either a fresh result or, when replayed is true, the stored
// response of the first delivery under the same idempotency key.
func (uc *IngestDepositWebhookUseCase) Execute(ctx context.Context, idempotencyKey string, payload dtos.PaysendWebhookPayload) (body []byte, replayed bool, err error) {
	if idempotencyKey == "" || len(idempotencyKey) > ports.MaxIdempotencyKeyLength {
		return nil, false, errors.ValidationError{Field: "Idempotency-Key", Message: "key is required and must be at most 128 characters"}
	}

	if stored, found, err := uc.idempotency.Get(ctx, idempotencyKey); err != nil {
		return nil, false, fmt.Errorf("idempotency lookup failed: %w", err)
	} else if found {
		return stored, true, nil
	}

	// Non-COMPLETED notifications are acknowledged without a ledger row; the
	// provider retries the same transactionId later with its final status.
	if payload.Status != string(entities.StatusCompleted) {
		body, err := uc.finish(ctx, idempotencyKey, dtos.WebhookIgnoredDTO{Status: "ignored"})
		return body, false, err
	}

	result, err := uc.deposit.Execute(ctx, dtos.DepositCommand{
		PhoneNumber:   payload.Recipient.PhoneNumber,
		Amount:        payload.Recipient.Amount,
		FundingSource: string(entities.SourcePaysend),
		Reference:     entities.PaysendReference(payload.TransactionID),
	})
	if err != nil {
		// Failures are not recorded: the provider's retry should get a fresh
		// attempt, not a cached error.
		return nil, false, err
	}

	body, err = uc.finish(ctx, idempotencyKey, result)
	return body, false, err
}

// finish serializes the response and stores it under the key; when a
// concurrent delivery raced us to the store, its response wins.
func (uc *IngestDepositWebhookUseCase) finish(ctx context.Context, key string, response interface{}) ([]byte, error) {
	body, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook response: %w", err)
	}
	winner, err := uc.idempotency.Store(ctx, key, body)
	if err != nil {
		return nil, fmt.Errorf("idempotency store failed: %w", err)
	}
	return winner, nil
}
