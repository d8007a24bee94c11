package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/purplewallet/walletcore/internal/adapters/http/common"
	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
	"github.com/purplewallet/walletcore/internal/application/dtos"
)

// CreateWalletUseCase provisions a wallet for an existing user.
type CreateWalletUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error)
}

// GetWalletUseCase loads the caller's wallet with its balance.
type GetWalletUseCase interface {
	Execute(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error)
}

// WalletHandler serves the wallet endpoints.
type WalletHandler struct {
	createWallet CreateWalletUseCase
	getWallet    GetWalletUseCase
}

// NewWalletHandler creates the handler.
func NewWalletHandler(createWallet CreateWalletUseCase, getWallet GetWalletUseCase) *WalletHandler {
	return &WalletHandler{
		createWallet: createWallet,
		getWallet:    getWallet,
	}
}

// CreateWalletRequest is the wallet creation body. The wallet is always
// bound to the authenticated caller.
type CreateWalletRequest struct {
	CurrencyCode string `json:"currency_code" binding:"omitempty,currency_code"`
}

// Create provisions a wallet for the caller. A second call for the same
// user fails with AlreadyExists.
func (h *WalletHandler) Create(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)

	// The body is optional; an empty POST provisions the default currency.
	var req CreateWalletRequest
	if c.Request.ContentLength > 0 {
		if !BindJSON(c, &req) {
			return
		}
	}

	cmd := dtos.CreateWalletCommand{
		UserID:       userID.String(),
		CurrencyCode: req.CurrencyCode,
	}

	result, err := h.createWallet.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Me returns the caller's wallet and balance.
func (h *WalletHandler) Me(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)

	result, err := h.getWallet.Execute(c.Request.Context(), dtos.GetWalletQuery{UserID: userID.String()})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes mounts the wallet routes on the given group.
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallets := router.Group("/wallets")
	{
		wallets.POST("", h.Create)
		wallets.GET("/me", h.Me)
	}
}
