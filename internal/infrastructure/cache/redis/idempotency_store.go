package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/purplewallet/walletcore/internal/application/ports"
)

// Compile-time check
var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore implements ports.IdempotencyStore on Redis.
//
// SET NX makes the check-and-set atomic: under two concurrent requests with
// the same key, exactly one response is stored and both callers receive it.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates the store with the given retention TTL.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(key string) string {
	return "idempotency:" + key
}

// Get returns the response stored under key, if any.
func (s *IdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	response, err := s.client.Get(ctx, idempotencyKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read idempotency store: %w", err)
	}
	return response, true, nil
}

// Store saves response under key; if another response won the race, the
// stored one is returned instead.
func (s *IdempotencyStore) Store(ctx context.Context, key string, response []byte) ([]byte, error) {
	k := idempotencyKey(key)

	stored, err := s.client.SetNX(ctx, k, response, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to write idempotency store: %w", err)
	}
	if stored {
		return response, nil
	}

	winner, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The winning entry expired between SET NX and GET; treat our
			// response as the winner.
			return response, nil
		}
		return nil, fmt.Errorf("failed to read idempotency winner: %w", err)
	}
	return winner, nil
}
