package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/purplewallet/walletcore/internal/application/ports"
)

// Compile-time check
var _ ports.ListingCache = (*ListingCache)(nil)

// ListingCache implements ports.ListingCache on Redis.
//
// Pages live under listings:<user>:<page>:<size>; a per-user set
// listings:index:<user> records the live keys so invalidation can purge them
// without a SCAN. The index outlives the pages slightly, which only makes
// invalidation delete keys that are already gone.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates the cache with the given entry TTL.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

func pageKey(userID uuid.UUID, page, pageSize int) string {
	return fmt.Sprintf("listings:%s:%d:%d", userID, page, pageSize)
}

func indexKey(userID uuid.UUID) string {
	return fmt.Sprintf("listings:index:%s", userID)
}

// Get returns the cached page, if present.
func (c *ListingCache) Get(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, pageKey(userID, page, pageSize)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read listing cache: %w", err)
	}
	return payload, true, nil
}

// Set stores a page and records its key in the user's index.
func (c *ListingCache) Set(ctx context.Context, userID uuid.UUID, page, pageSize int, payload []byte) error {
	key := pageKey(userID, page, pageSize)
	index := indexKey(userID)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, c.ttl)
		pipe.SAdd(ctx, index, key)
		pipe.Expire(ctx, index, c.ttl+time.Minute)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write listing cache: %w", err)
	}
	return nil
}

// InvalidateUsers purges every cached page of each given user.
func (c *ListingCache) InvalidateUsers(ctx context.Context, userIDs ...uuid.UUID) error {
	for _, userID := range userIDs {
		index := indexKey(userID)

		keys, err := c.client.SMembers(ctx, index).Result()
		if err != nil {
			return fmt.Errorf("failed to read listing index: %w", err)
		}

		keys = append(keys, index)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to purge listing cache: %w", err)
		}
	}
	return nil
}
