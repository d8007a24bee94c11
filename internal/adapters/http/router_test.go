package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
	"github.com/purplewallet/walletcore/internal/application/dtos"
)

type registerUserStub struct{}

func (registerUserStub) Execute(_ context.Context, cmd dtos.RegisterUserCommand) (*dtos.RegisterUserDTO, error) {
	return &dtos.RegisterUserDTO{
		User: dtos.UserDTO{ID: uuid.NewString(), Username: cmd.Username},
	}, nil
}

type getWalletStub struct{}

func (getWalletStub) Execute(_ context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
	return &dtos.WalletDTO{ID: uuid.NewString(), UserID: query.UserID, Balance: "0.00", Currency: "USD"}, nil
}

func testRouter(config *RouterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if config == nil {
		config = DefaultRouterConfig()
	}
	return NewRouterBuilder(config).
		WithUserUseCases(&UserUseCases{RegisterUser: registerUserStub{}}).
		WithWalletUseCases(&WalletUseCases{GetWallet: getWalletStub{}}).
		Build()
}

func TestRouter_PublicRegistration(t *testing.T) {
	router := testRouter(nil)

	body, err := json.Marshal(gin.H{
		"username":     "alice",
		"email":        "alice@example.com",
		"phone_number": "996700123456",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, "registration must not require a token")
}

func TestRouter_ProtectedRequiresAuth(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest("GET", "/api/v1/wallets/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ProtectedWithToken(t *testing.T) {
	config := DefaultRouterConfig()
	router := testRouter(config)

	token, err := middleware.IssueToken(config.JWTSecret, uuid.New(), "alice", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/wallets/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":"0.00"`)
}

func TestRouter_MachineEndpointsHonourWhitelist(t *testing.T) {
	config := DefaultRouterConfig()
	config.IPWhitelist = []string{"203.0.113.10"}
	gin.SetMode(gin.TestMode)
	router := NewRouterBuilder(config).
		WithWebhookIngest(ingestStub{}).
		Build()

	req := httptest.NewRequest("POST", "/api/v1/webhooks/paysend", bytes.NewReader([]byte(`{}`)))
	req.RemoteAddr = "198.51.100.7:44444"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type ingestStub struct{}

func (ingestStub) Execute(context.Context, string, dtos.PaysendWebhookPayload) ([]byte, bool, error) {
	return []byte(`{"status":"processed","currency":"USD"}`), false, nil
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	router := testRouter(nil)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_NoRoute(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest("GET", "/api/v2/nothing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "endpoint not found")
}
