package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/purplewallet/walletcore/internal/adapters/http/common"
	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
	"github.com/purplewallet/walletcore/internal/application/dtos"
)

// SignatureHeader carries the provider's HMAC-SHA256 of the raw body,
// hex-encoded.
const SignatureHeader = "X-Paysend-Signature"

// maxWebhookBody caps the request body read for signature verification.
const maxWebhookBody = 1 << 20

// IngestWebhookUseCase turns an external deposit notification into a ledger
// credit, wrapped in idempotency. The returned bytes are the JSON body to
// answer with; replayed reports that the body came from the idempotency
// store rather than a fresh credit.
type IngestWebhookUseCase interface {
	Execute(ctx context.Context, idempotencyKey string, payload dtos.PaysendWebhookPayload) (body []byte, replayed bool, err error)
}

// WebhookHandler serves the provider-facing deposit notification endpoint.
// Source-IP filtering happens in the router; the handler owns signature
// verification and payload decoding.
type WebhookHandler struct {
	ingest IngestWebhookUseCase
	secret []byte
}

// NewWebhookHandler creates the handler. secret is the shared HMAC key.
func NewWebhookHandler(ingest IngestWebhookUseCase, secret []byte) *WebhookHandler {
	return &WebhookHandler{
		ingest: ingest,
		secret: secret,
	}
}

// Paysend ingests one deposit notification. The signature covers the raw
// body bytes, so the body is read before any decoding.
func (h *WebhookHandler) Paysend(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		middleware.WebhookIngests.WithLabelValues("rejected").Inc()
		common.BadRequestResponse(c, "failed to read request body")
		return
	}

	if !h.validSignature(raw, c.GetHeader(SignatureHeader)) {
		middleware.WebhookIngests.WithLabelValues("rejected").Inc()
		common.UnauthorizedResponse(c, "invalid webhook signature")
		return
	}

	var payload dtos.PaysendWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		middleware.WebhookIngests.WithLabelValues("rejected").Inc()
		common.BadRequestResponse(c, "malformed webhook payload")
		return
	}

	key := c.GetHeader("Idempotency-Key")
	body, replayed, err := h.ingest.Execute(c.Request.Context(), key, payload)
	if err != nil {
		middleware.WebhookIngests.WithLabelValues("rejected").Inc()
		common.HandleDomainError(c, err)
		return
	}

	var ack dtos.DepositResultDTO
	_ = json.Unmarshal(body, &ack)

	// Only a fresh credit counts as a transaction; replays answer from the
	// stored body without moving money.
	outcome := "processed"
	switch {
	case replayed:
		outcome = "replayed"
	case ack.Status == "ignored":
		outcome = "ignored"
	default:
		middleware.RecordTransaction("DEPOSIT", "COMPLETED", ack.Currency)
	}
	middleware.WebhookIngests.WithLabelValues(outcome).Inc()

	c.Data(http.StatusOK, "application/json", body)
}

// validSignature compares the header against HMAC-SHA256(secret, body) in
// constant time.
func (h *WebhookHandler) validSignature(body []byte, header string) bool {
	if header == "" {
		return false
	}
	provided, err := hex.DecodeString(header)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
