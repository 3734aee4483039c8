package ledger

import (
	"context"

	"shopgate/internal/model"
)

// Ledger remembers the outcome of purchase attempts keyed by the caller's
// idempotency key, within a bounded retention window. An empty key disables
// memoization for that request. Implementations must be safe for concurrent
// use.
type Ledger interface {
	// Check returns the stored result for the key, or nil when the key is
	// empty, unknown, or its record has outlived the retention window.
	// Expired records are treated as absent.
	Check(ctx context.Context, key string) (*model.PurchaseResult, error)

	// Store inserts or overwrites the record for the key with the current
	// timestamp. It is a no-op for an empty key. Insertion for a single key
	// is atomic; concurrent stores never corrupt the ledger.
	Store(ctx context.Context, key string, result *model.PurchaseResult) error

	// Lock acquires a mutual-exclusion lock scoped to the key, serialising
	// concurrent purchase attempts that share an idempotency key so the
	// downstream order is created at most once per key. The returned unlock
	// function must always be called. An empty key returns a no-op unlock.
	Lock(ctx context.Context, key string) (unlock func(), err error)

	// Close stops the background reaper and releases resources.
	Close() error
}
