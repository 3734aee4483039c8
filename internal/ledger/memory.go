package ledger

import (
	"context"
	"sync"
	"time"

	"shopgate/internal/model"

	"github.com/rs/zerolog"
)

const (
	// DefaultRetention is how long a stored result is replayed for repeats.
	DefaultRetention = time.Hour

	// DefaultReapInterval is how often expired records are swept. It must
	// not exceed the retention window.
	DefaultReapInterval = 30 * time.Minute
)

type memoryRecord struct {
	result   model.PurchaseResult
	storedAt time.Time
}

// keyLock is a reference-counted per-key mutex.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryLedger is an in-memory Ledger. State is lost on restart, which is
// acceptable for single-instance deployments; use the postgres ledger when
// the deduplication window must survive restarts.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	locks   map[string]*keyLock

	retention time.Duration
	logger    zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLedger creates an in-memory ledger and starts its background
// reaper. The reaper runs on a fixed interval independent of request
// traffic, so memory stays bounded even with no requests after a burst.
func NewMemoryLedger(retention, reapInterval time.Duration, logger zerolog.Logger) *MemoryLedger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if reapInterval <= 0 || reapInterval > retention {
		reapInterval = retention / 2
	}

	l := &MemoryLedger{
		records:   make(map[string]memoryRecord),
		locks:     make(map[string]*keyLock),
		retention: retention,
		logger:    logger.With().Str("component", "idempotency-ledger").Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go l.reapLoop(reapInterval)

	l.logger.Info().
		Dur("retention", retention).
		Dur("reap_interval", reapInterval).
		Msg("in-memory idempotency ledger started")

	return l
}

// Check returns the stored result for the key, treating expired records as
// absent and deleting them lazily.
func (l *MemoryLedger) Check(ctx context.Context, key string) (*model.PurchaseResult, error) {
	if key == "" {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return nil, nil
	}

	if time.Since(rec.storedAt) >= l.retention {
		delete(l.records, key)
		return nil, nil
	}

	result := rec.result
	return &result, nil
}

// Store inserts or overwrites the record for the key with the current
// timestamp. Empty keys are not memoized.
func (l *MemoryLedger) Store(ctx context.Context, key string, result *model.PurchaseResult) error {
	if key == "" || result == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[key] = memoryRecord{
		result:   *result,
		storedAt: time.Now(),
	}

	return nil
}

// Lock acquires the per-key mutex. The lock is held across the whole
// verify-submit-store sequence by the purchase orchestrator, giving
// at-most-one downstream order per idempotency key under concurrent
// duplicate submissions.
func (l *MemoryLedger) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return func() {}, nil
	}

	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}, nil
}

// Reap removes all records older than the retention window.
func (l *MemoryLedger) Reap() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, rec := range l.records {
		if time.Since(rec.storedAt) >= l.retention {
			delete(l.records, key)
			removed++
		}
	}

	return removed
}

// Size returns the number of live records.
func (l *MemoryLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Close stops the background reaper.
func (l *MemoryLedger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
	return nil
}

func (l *MemoryLedger) reapLoop(interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := l.Reap(); removed > 0 {
				l.logger.Debug().Int("removed", removed).Msg("reaped expired idempotency records")
			}
		case <-l.stop:
			return
		}
	}
}

// Ensure MemoryLedger implements Ledger
var _ Ledger = (*MemoryLedger)(nil)
