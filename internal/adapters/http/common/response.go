// Package common holds the shared HTTP response helpers and the domain-error
// to HTTP-status mapping.
//
// Separate package so handlers and the root http package can both use it
// without a cyclic import.
package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/purplewallet/walletcore/internal/domain/errors"
)

// ============================================
// Request ID
// ============================================

const RequestIDKey = "X-Request-ID"

// GetRequestID returns the request ID from the gin context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID stores the request ID in the context and echoes it as a
// response header.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// ============================================
// Response Shapes
// ============================================

// ErrorBody is the uniform error payload: {"detail": "..."}.
// Validation failures additionally carry per-field messages.
type ErrorBody struct {
	Detail string       `json:"detail"`
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError names the request field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error sends an error response with the given status.
func Error(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, ErrorBody{Detail: detail})
}

// ValidationErrorResponse sends a 400 with per-field details.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	c.JSON(http.StatusBadRequest, ErrorBody{
		Detail: "request validation failed",
		Fields: fields,
	})
}

// BadRequestResponse sends a 400.
func BadRequestResponse(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

// UnauthorizedResponse sends a 401.
func UnauthorizedResponse(c *gin.Context, detail string) {
	Error(c, http.StatusUnauthorized, detail)
}

// ForbiddenResponse sends a 403.
func ForbiddenResponse(c *gin.Context, detail string) {
	Error(c, http.StatusForbidden, detail)
}

// NotFoundResponse sends a 404.
func NotFoundResponse(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

// TooManyRequestsResponse sends a 429 with a Retry-After hint in seconds.
func TooManyRequestsResponse(c *gin.Context, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	Error(c, http.StatusTooManyRequests, "too many requests, please try again later")
}

// InternalErrorResponse sends a 500. The real cause stays in the logs.
func InternalErrorResponse(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "an unexpected error occurred")
}

// ============================================
// Domain Error to HTTP Status Mapping
// ============================================

// HandleDomainError translates an engine error into an HTTP response.
// Every caller-visible error kind maps to exactly one status.
func HandleDomainError(c *gin.Context, err error) {
	if domainerrors.IsValidationError(err) {
		ValidationErrorResponse(c, validationFields(err))
		return
	}

	Error(c, statusFor(err), detailFor(err))
}

// statusFor resolves the HTTP status for an engine error. Unrecognized
// errors are treated as internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainerrors.ErrUnauthorized),
		errors.Is(err, domainerrors.ErrBadSignature):
		return http.StatusUnauthorized

	// Ownership failures are 403 regardless of operation: the row exists,
	// the caller just is not a party to it.
	case errors.Is(err, domainerrors.ErrNotOwner):
		return http.StatusForbidden

	case domainerrors.IsNotFound(err):
		return http.StatusNotFound

	case domainerrors.IsConcurrencyError(err):
		return http.StatusConflict

	case errors.Is(err, domainerrors.ErrInsufficientFunds),
		errors.Is(err, domainerrors.ErrNonPositiveAmount),
		errors.Is(err, domainerrors.ErrSelfTransfer),
		errors.Is(err, domainerrors.ErrCurrencyMismatch),
		errors.Is(err, domainerrors.ErrTransactionNotPending),
		errors.Is(err, domainerrors.ErrInvalidCode),
		errors.Is(err, domainerrors.ErrExpired),
		errors.Is(err, domainerrors.ErrDuplicatePhone),
		errors.Is(err, domainerrors.ErrEntityAlreadyExists),
		errors.Is(err, domainerrors.ErrWalletNotActive):
		return http.StatusBadRequest

	case domainerrors.IsBusinessRuleViolation(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// detailFor picks the user-facing message: the DomainError message when the
// engine attached one, otherwise the error text itself. Internal errors are
// never echoed back.
func detailFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "an unexpected error occurred"
	}

	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

func validationFields(err error) []FieldError {
	var many domainerrors.ValidationErrors
	if errors.As(err, &many) {
		fields := make([]FieldError, 0, len(many))
		for _, v := range many {
			fields = append(fields, FieldError{Field: v.Field, Message: v.Message})
		}
		return fields
	}

	var one domainerrors.ValidationError
	if errors.As(err, &one) {
		return []FieldError{{Field: one.Field, Message: one.Message}}
	}
	return nil
}
