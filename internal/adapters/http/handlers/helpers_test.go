package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetupValidator()
}

// authAs injects the identity the auth middleware would have stored.
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AuthUserIDKey, userID)
		c.Next()
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSONWithHeaders(t *testing.T, router *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// memoryIdempotencyStore is a map-backed store for handler tests.
type memoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{entries: make(map[string][]byte)}
}

func (s *memoryIdempotencyStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, found := s.entries[key]
	return body, found, nil
}

func (s *memoryIdempotencyStore) Store(_ context.Context, key string, response []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if winner, found := s.entries[key]; found {
		return winner, nil
	}
	s.entries[key] = response
	return response, nil
}
