// Package handlers contains the HTTP handlers of the REST API. A handler
// binds the request, builds the application command or query, invokes the
// use case and renders the result. Error rendering is centralized in the
// common package.
package handlers

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/purplewallet/walletcore/internal/adapters/http/common"
)

var setupOnce sync.Once

// SetupValidator registers the custom validators and makes validation
// errors report json field names instead of Go struct fields.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("currency_code", validateCurrencyCode)
			_ = v.RegisterValidation("money_amount", validateMoneyAmount)
			_ = v.RegisterValidation("phone_number", validatePhoneNumber)
		}
	})
}

// validateCurrencyCode accepts three uppercase letters.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Amounts travel as decimal strings with at most two fraction digits.
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

func validateMoneyAmount(fl validator.FieldLevel) bool {
	return moneyPattern.MatchString(fl.Field().String())
}

// validatePhoneNumber mirrors the domain normalization: an optional leading
// "+", digits, spaces and dashes, 6 to 15 digits once stripped.
var phoneDigits = regexp.MustCompile(`^[0-9]{6,15}$`)

func validatePhoneNumber(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	raw = strings.TrimPrefix(raw, "+")
	raw = strings.NewReplacer(" ", "", "-", "").Replace(raw)
	return phoneDigits.MatchString(raw)
}

// HandleValidationErrors renders binding failures as a 400 with per-field
// details when the validator produced them.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: validationMessage(fieldErr),
			})
		}
	}

	if len(fieldErrors) == 0 {
		common.BadRequestResponse(c, "invalid request body")
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "uuid":
		return "invalid UUID format"
	case "min":
		return "value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "value is too long (maximum: " + fe.Param() + ")"
	case "len":
		return "value must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "value must be one of: " + fe.Param()
	case "currency_code":
		return "invalid currency code (must be 3 uppercase letters)"
	case "money_amount":
		return "invalid amount format (use a decimal string like '100.50')"
	case "phone_number":
		return "invalid phone number"
	default:
		return "invalid value"
	}
}

// BindJSON binds the JSON body. Returns false when the response has already
// been written.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI binds URI parameters.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// PaginationParams are the page/page_size query parameters.
type PaginationParams struct {
	Page     int
	PageSize int
}

// ParsePagination reads page and page_size, clamping page_size to [1,100]
// with a default of 20. Unparsable values fall back to the defaults.
func ParsePagination(c *gin.Context) PaginationParams {
	params := PaginationParams{Page: 1, PageSize: 20}

	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			params.Page = page
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			if size > 100 {
				size = 100
			}
			params.PageSize = size
		}
	}

	return params
}
