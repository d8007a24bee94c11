package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/purplewallet/walletcore/internal/adapters/http/common"
	"github.com/purplewallet/walletcore/internal/application/dtos"
)

// RegisterUserUseCase provisions a user and, for non-staff accounts, its
// wallet in one atomic unit.
type RegisterUserUseCase interface {
	Execute(ctx context.Context, cmd dtos.RegisterUserCommand) (*dtos.RegisterUserDTO, error)
}

// UserHandler serves the public registration endpoint.
type UserHandler struct {
	registerUser RegisterUserUseCase
}

// NewUserHandler creates the handler.
func NewUserHandler(registerUser RegisterUserUseCase) *UserHandler {
	return &UserHandler{registerUser: registerUser}
}

// RegisterUserRequest is the registration body.
type RegisterUserRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=150"`
	Email        string `json:"email" binding:"required,email"`
	PhoneNumber  string `json:"phone_number" binding:"required,phone_number"`
	IsStaff      bool   `json:"is_staff"`
	CurrencyCode string `json:"currency_code" binding:"omitempty,currency_code"`
}

// Register creates a user. Non-staff users get a wallet in the same unit;
// the response carries both.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.RegisterUserCommand{
		Username:     req.Username,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		IsStaff:      req.IsStaff,
		CurrencyCode: req.CurrencyCode,
	}

	result, err := h.registerUser.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// RegisterRoutes mounts the user routes on the given group.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/users", h.Register)
}
