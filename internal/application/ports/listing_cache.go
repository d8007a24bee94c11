// Package ports - ListingCache caches paginated transaction listings.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// ListingCache stores serialized transaction pages keyed by
// (user, page, page_size). Entries live ~15 minutes; every transaction write
// involving a user purges all of that user's entries, so readers see at
// worst a briefly stale snapshot.
type ListingCache interface {
	// Get returns the cached page, if present.
	Get(ctx context.Context, userID uuid.UUID, page, pageSize int) (payload []byte, found bool, err error)

	// Set stores a page with the configured TTL and indexes the key under
	// the user for later invalidation.
	Set(ctx context.Context, userID uuid.UUID, page, pageSize int, payload []byte) error

	// InvalidateUsers purges every cached page of each given user.
	InvalidateUsers(ctx context.Context, userIDs ...uuid.UUID) error
}
