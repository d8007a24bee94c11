package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/purplewallet/walletcore/internal/adapters/http/common"
	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
	"github.com/purplewallet/walletcore/internal/application/dtos"
	"github.com/purplewallet/walletcore/internal/application/ports"
)

// TransferUseCase opens a two-phase transfer.
type TransferUseCase interface {
	Execute(ctx context.Context, cmd dtos.TransferCommand) (*dtos.TransferResultDTO, error)
}

// ProcessActionUseCase resolves a pending transfer from the recipient side.
type ProcessActionUseCase interface {
	Execute(ctx context.Context, cmd dtos.ProcessActionCommand) (*dtos.ProcessActionResultDTO, error)
}

// WithdrawUseCase debits the caller's wallet immediately.
type WithdrawUseCase interface {
	Execute(ctx context.Context, cmd dtos.WithdrawCommand) (*dtos.TransactionDTO, error)
}

// CashOutRequestUseCase issues a one-time withdrawal code.
type CashOutRequestUseCase interface {
	Execute(ctx context.Context, cmd dtos.CashOutRequestCommand) (*dtos.CashOutRequestDTO, error)
}

// CashOutVerifyUseCase redeems a withdrawal code over the counter.
type CashOutVerifyUseCase interface {
	Execute(ctx context.Context, cmd dtos.CashOutVerifyCommand) (*dtos.CashOutVerifyDTO, error)
}

// ListTransactionsUseCase pages through the caller's history.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionPageDTO, error)
}

// GetTransactionUseCase loads one transaction the caller participates in.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error)
}

// TransactionHandler serves the money-movement and history endpoints.
type TransactionHandler struct {
	transfer         TransferUseCase
	processAction    ProcessActionUseCase
	withdraw         WithdrawUseCase
	cashOutRequest   CashOutRequestUseCase
	cashOutVerify    CashOutVerifyUseCase
	listTransactions ListTransactionsUseCase
	getTransaction   GetTransactionUseCase
	idempotency      ports.IdempotencyStore
}

// NewTransactionHandler creates the handler. The idempotency store backs the
// machine-facing verify endpoint.
func NewTransactionHandler(
	transfer TransferUseCase,
	processAction ProcessActionUseCase,
	withdraw WithdrawUseCase,
	cashOutRequest CashOutRequestUseCase,
	cashOutVerify CashOutVerifyUseCase,
	listTransactions ListTransactionsUseCase,
	getTransaction GetTransactionUseCase,
	idempotency ports.IdempotencyStore,
) *TransactionHandler {
	return &TransactionHandler{
		transfer:         transfer,
		processAction:    processAction,
		withdraw:         withdraw,
		cashOutRequest:   cashOutRequest,
		cashOutVerify:    cashOutVerify,
		listTransactions: listTransactions,
		getTransaction:   getTransaction,
		idempotency:      idempotency,
	}
}

// TransferRequest initiates a transfer to another user by username.
type TransferRequest struct {
	RecipientUsername string `json:"recipient_username" binding:"required"`
	Amount            string `json:"amount" binding:"required,money_amount"`
}

// ProcessActionRequest accepts or rejects a pending transfer.
type ProcessActionRequest struct {
	Action    string `json:"action" binding:"required,oneof=accept reject"`
	Reference string `json:"reference" binding:"required"`
}

// WithdrawRequest debits the caller's wallet.
type WithdrawRequest struct {
	Amount string `json:"amount" binding:"required,money_amount"`
}

// CashOutCreateRequest asks for a one-time withdrawal code.
type CashOutCreateRequest struct {
	Amount string `json:"amount" binding:"required,money_amount"`
}

// CashOutVerifyRequest redeems a withdrawal code. Sent by the ATM backend,
// not by end users.
type CashOutVerifyRequest struct {
	PhoneNumber    string `json:"phone_number" binding:"required,phone_number"`
	WithdrawalCode string `json:"withdrawal_code" binding:"required,len=8"`
}

// TransactionIDParam is the transaction ID path parameter.
type TransactionIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Transfer opens a transfer hold; the recipient has the expiry window to
// accept or reject it.
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.TransferCommand{
		SenderUserID:      middleware.GetAuthUserID(c).String(),
		RecipientUsername: req.RecipientUsername,
		Amount:            req.Amount,
	}

	result, err := h.transfer.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordTransaction("TRANSFER_OUT", "PENDING", result.Currency)
	c.JSON(http.StatusCreated, result)
}

// ProcessAction resolves a pending transfer addressed to the caller.
func (h *TransactionHandler) ProcessAction(c *gin.Context) {
	var req ProcessActionRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.ProcessActionCommand{
		UserID:    middleware.GetAuthUserID(c).String(),
		Action:    req.Action,
		Reference: req.Reference,
	}

	result, err := h.processAction.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	status := "COMPLETED"
	if req.Action == "reject" {
		status = "REJECTED"
	}
	middleware.RecordTransaction("TRANSFER_IN", status, result.Currency)
	c.JSON(http.StatusOK, result)
}

// Withdraw debits the caller's wallet immediately.
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.WithdrawCommand{
		UserID: middleware.GetAuthUserID(c).String(),
		Amount: req.Amount,
	}

	result, err := h.withdraw.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordTransaction(result.Type, result.Status, result.Currency)
	c.JSON(http.StatusCreated, result)
}

// CashOutCreate issues a one-time code; no funds move until it is verified
// at the ATM.
func (h *TransactionHandler) CashOutCreate(c *gin.Context) {
	var req CashOutCreateRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.CashOutRequestCommand{
		UserID: middleware.GetAuthUserID(c).String(),
		Amount: req.Amount,
	}

	result, err := h.cashOutRequest.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordTransaction("WITHDRAWAL", "PENDING", result.Currency)
	c.JSON(http.StatusCreated, result)
}

// CashOutVerify redeems a withdrawal code. The endpoint is machine-facing:
// the router mounts it behind the IP whitelist, and deliveries are
// deduplicated by the required Idempotency-Key header.
func (h *TransactionHandler) CashOutVerify(c *gin.Context) {
	key := c.GetHeader("Idempotency-Key")
	if key == "" || len(key) > ports.MaxIdempotencyKeyLength {
		common.BadRequestResponse(c, "Idempotency-Key header is required and must be at most 128 characters")
		return
	}

	ctx := c.Request.Context()
	if stored, found, err := h.idempotency.Get(ctx, key); err != nil {
		common.InternalErrorResponse(c)
		return
	} else if found {
		c.Data(http.StatusOK, "application/json", stored)
		return
	}

	var req CashOutVerifyRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.CashOutVerifyCommand{
		PhoneNumber:    req.PhoneNumber,
		WithdrawalCode: req.WithdrawalCode,
	}

	result, err := h.cashOutVerify.Execute(ctx, cmd)
	if err != nil {
		// Failed verifications are not cached: the terminal's retry gets a
		// fresh attempt against the committed row state.
		common.HandleDomainError(c, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		common.InternalErrorResponse(c)
		return
	}
	winner, err := h.idempotency.Store(ctx, key, body)
	if err != nil {
		common.InternalErrorResponse(c)
		return
	}

	middleware.RecordTransaction("WITHDRAWAL", "COMPLETED", result.Currency)
	c.Data(http.StatusOK, "application/json", winner)
}

// List returns one page of the caller's history, newest first. Filters:
// type, status, created_after, created_before (RFC 3339).
func (h *TransactionHandler) List(c *gin.Context) {
	pagination := ParsePagination(c)

	query := dtos.ListTransactionsQuery{
		UserID:   middleware.GetAuthUserID(c).String(),
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}

	if raw := c.Query("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.BadRequestResponse(c, "created_after must be an RFC 3339 timestamp")
			return
		}
		query.CreatedAfter = &t
	}
	if raw := c.Query("created_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.BadRequestResponse(c, "created_before must be an RFC 3339 timestamp")
			return
		}
		query.CreatedBefore = &t
	}

	result, err := h.listTransactions.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get returns one transaction; 403 when the caller is neither subject nor
// counterparty.
func (h *TransactionHandler) Get(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	query := dtos.GetTransactionQuery{
		UserID:        middleware.GetAuthUserID(c).String(),
		TransactionID: params.ID,
	}

	result, err := h.getTransaction.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes mounts the user-facing transaction routes on the given
// group. CashOutVerify is mounted separately by the router behind the IP
// whitelist.
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/transfers", h.Transfer)
	router.POST("/transfers/actions", h.ProcessAction)
	router.POST("/withdrawals", h.Withdraw)
	router.POST("/cash-outs", h.CashOutCreate)

	transactions := router.Group("/transactions")
	{
		transactions.GET("", h.List)
		transactions.GET("/:id", h.Get)
	}
}
