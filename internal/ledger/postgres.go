package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shopgate/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresLedger is a Ledger backed by PostgreSQL, for deployments where the
// deduplication window must survive process restarts. Per-key locking uses
// session advisory locks, so it holds across gateway instances sharing the
// database.
type PostgresLedger struct {
	pool      *pgxpool.Pool
	retention time.Duration
	logger    zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewPostgresLedger creates a postgres-backed ledger, ensures its schema and
// starts the background reaper.
func NewPostgresLedger(ctx context.Context, pool *pgxpool.Pool, retention, reapInterval time.Duration, logger zerolog.Logger) (*PostgresLedger, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if reapInterval <= 0 || reapInterval > retention {
		reapInterval = retention / 2
	}

	l := &PostgresLedger{
		pool:      pool,
		retention: retention,
		logger:    logger.With().Str("repository", "idempotency-ledger").Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if err := l.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger schema: %w", err)
	}

	go l.reapLoop(reapInterval)

	l.logger.Info().
		Dur("retention", retention).
		Dur("reap_interval", reapInterval).
		Msg("postgres idempotency ledger started")

	return l, nil
}

func (l *PostgresLedger) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS idempotency_records (
			idempotency_key TEXT PRIMARY KEY,
			result JSONB NOT NULL,
			stored_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idempotency_records_stored_at_idx
			ON idempotency_records (stored_at);
	`

	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create idempotency_records table: %w", err)
	}

	return nil
}

// Check returns the stored result for the key. Records older than the
// retention window are treated as absent and deleted lazily.
func (l *PostgresLedger) Check(ctx context.Context, key string) (*model.PurchaseResult, error) {
	if key == "" {
		return nil, nil
	}

	query := `
		SELECT result, stored_at
		FROM idempotency_records
		WHERE idempotency_key = $1
	`

	var payload []byte
	var storedAt time.Time
	err := l.pool.QueryRow(ctx, query, key).Scan(&payload, &storedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		l.logger.Error().Err(err).Msg("failed to read idempotency record")
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	if time.Since(storedAt) >= l.retention {
		if _, err := l.pool.Exec(ctx, `DELETE FROM idempotency_records WHERE idempotency_key = $1`, key); err != nil {
			l.logger.Warn().Err(err).Msg("failed to delete stale idempotency record")
		}
		return nil, nil
	}

	var result model.PurchaseResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored purchase result: %w", err)
	}

	return &result, nil
}

// Store inserts or overwrites the record for the key. The upsert makes
// concurrent stores for the same key last-writer-wins with no lost records.
func (l *PostgresLedger) Store(ctx context.Context, key string, result *model.PurchaseResult) error {
	if key == "" || result == nil {
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode purchase result: %w", err)
	}

	query := `
		INSERT INTO idempotency_records (idempotency_key, result, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (idempotency_key)
		DO UPDATE SET result = EXCLUDED.result, stored_at = EXCLUDED.stored_at
	`

	if _, err := l.pool.Exec(ctx, query, key, payload, time.Now()); err != nil {
		l.logger.Error().Err(err).Msg("failed to store idempotency record")
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}

	return nil
}

// Lock takes a session advisory lock derived from the key on a dedicated
// connection. The connection is held until unlock so the lock survives pool
// reuse.
func (l *PostgresLedger) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return func() {}, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for advisory lock: %w", err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to take advisory lock: %w", err)
	}

	return func() {
		// Unlock on a background context: the request context may already
		// be cancelled, but the lock must still be released.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
			l.logger.Error().Err(err).Msg("failed to release advisory lock")
		}
		conn.Release()
	}, nil
}

// Reap removes all records older than the retention window.
func (l *PostgresLedger) Reap(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-l.retention)

	tag, err := l.pool.Exec(ctx, `DELETE FROM idempotency_records WHERE stored_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reap idempotency records: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Close stops the background reaper. The pool is owned by the caller and is
// not closed here.
func (l *PostgresLedger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
	return nil
}

func (l *PostgresLedger) reapLoop(interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := l.Reap(ctx)
			cancel()
			if err != nil {
				l.logger.Error().Err(err).Msg("idempotency reap failed")
				continue
			}
			if removed > 0 {
				l.logger.Debug().Int64("removed", removed).Msg("reaped expired idempotency records")
			}
		case <-l.stop:
			return
		}
	}
}

// Ensure PostgresLedger implements Ledger
var _ Ledger = (*PostgresLedger)(nil)
