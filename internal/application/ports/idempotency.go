// Package ports - IdempotencyStore makes externally retried requests safe.
package ports

import "context"

// MaxIdempotencyKeyLength bounds client-supplied keys.
const MaxIdempotencyKeyLength = 128

// IdempotencyStore maps a client-supplied key to the first response produced
// under it, for a bounded retention window (24h by default).
//
// The store is the first line of defence against webhook replays; reference
// uniqueness in the ledger is the second.
type IdempotencyStore interface {
	// Get returns the response stored under key, if any.
	Get(ctx context.Context, key string) (response []byte, found bool, err error)

	// Store saves response under key with the retention TTL using an atomic
	// check-and-set: if a response is already stored, the stored one wins
	// and is returned unchanged.
	Store(ctx context.Context, key string, response []byte) (winner []byte, err error)
}
