package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
	}{
		{"Defaults", "", 1, 20},
		{"Explicit", "?page=3&page_size=50", 3, 50},
		{"ClampsPageSize", "?page_size=500", 1, 100},
		{"RejectsZero", "?page=0&page_size=0", 1, 20},
		{"RejectsNegative", "?page=-1&page_size=-5", 1, 20},
		{"RejectsGarbage", "?page=abc&page_size=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/transactions"+tt.query, nil)

			params := ParsePagination(c)

			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.pageSize, params.PageSize)
		})
	}
}

// amountProbe exercises the money_amount validator through gin binding.
type amountProbe struct {
	Amount string `json:"amount" binding:"required,money_amount"`
}

func TestMoneyAmountValidation(t *testing.T) {
	router := gin.New()
	router.POST("/probe", func(c *gin.Context) {
		var req amountProbe
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	valid := []string{"0", "1", "100.50", "0.01", "9999999999.99"}
	for _, amount := range valid {
		t.Run("Valid_"+amount, func(t *testing.T) {
			w := postJSON(t, router, "/probe", gin.H{"amount": amount})
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	invalid := []string{"-5.00", "1.234", "1,50", "12.", ".50", "ten", "1e3", ""}
	for _, amount := range invalid {
		t.Run("Invalid_"+amount, func(t *testing.T) {
			w := postJSON(t, router, "/probe", gin.H{"amount": amount})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

type phoneProbe struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone_number"`
}

func TestPhoneNumberValidation(t *testing.T) {
	router := gin.New()
	router.POST("/probe", func(c *gin.Context) {
		var req phoneProbe
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	valid := []string{"996700123456", "+996 700 123-456", "123456", "+123456789012345"}
	for _, phone := range valid {
		t.Run("Valid_"+phone, func(t *testing.T) {
			w := postJSON(t, router, "/probe", gin.H{"phone_number": phone})
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	invalid := []string{"12345", "1234567890123456", "phone", "996-700-abc"}
	for _, phone := range invalid {
		t.Run("Invalid_"+phone, func(t *testing.T) {
			w := postJSON(t, router, "/probe", gin.H{"phone_number": phone})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

type currencyProbe struct {
	CurrencyCode string `json:"currency_code" binding:"omitempty,currency_code"`
}

func TestCurrencyCodeValidation(t *testing.T) {
	router := gin.New()
	router.POST("/probe", func(c *gin.Context) {
		var req currencyProbe
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	for _, code := range []string{"USD", "KGS", "EUR", ""} {
		t.Run("Valid_"+code, func(t *testing.T) {
			w := postJSON(t, router, "/probe", gin.H{"currency_code": code})
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	for _, code := range []string{"usd", "US", "DOLLARS", "U$D"} {
		t.Run("Invalid_"+code, func(t *testing.T) {
			w := postJSON(t, router, "/probe", gin.H{"currency_code": code})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	router := gin.New()
	router.POST("/probe", func(c *gin.Context) {
		var req phoneProbe
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	w := postJSON(t, router, "/probe", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone_number")
	assert.NotContains(t, w.Body.String(), "PhoneNumber")
}
