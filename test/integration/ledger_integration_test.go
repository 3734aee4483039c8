package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"shopgate/internal/ledger"
	"shopgate/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedResult(orderID string) *model.PurchaseResult {
	return &model.PurchaseResult{
		Confirmed: &model.PurchaseConfirmation{
			OrderID:    orderID,
			ASIN:       "B08C7KG5LP",
			Quantity:   2,
			UnitPrice:  169.99,
			TotalPrice: 339.98,
			Tracking:   "trk-001",
		},
		CorrelationID: "corr-int",
		Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresLedger_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ctx := context.Background()

	pgLedger, err := ledger.NewPostgresLedger(ctx, testDB.Pool, time.Minute, time.Second, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgLedger.Close() })

	t.Run("Check on unknown key returns nil", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		got, err := pgLedger.Check(ctx, "never-seen")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Store then Check round-trips the result", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		want := storedResult("ord-001")
		require.NoError(t, pgLedger.Store(ctx, "key-1", want))

		got, err := pgLedger.Check(ctx, "key-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.Confirmed, got.Confirmed)
		assert.Equal(t, want.CorrelationID, got.CorrelationID)
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
	})

	t.Run("Store rejections round-trip with details", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		want := &model.PurchaseResult{
			Rejected: &model.PurchaseRejection{
				Stage:   model.StageCatalogValidate,
				Code:    model.ErrCodeASINNotInCatalog,
				Message: "asin ZZZ is not purchasable",
				Details: map[string]any{
					"asin":        "ZZZ",
					"suggestions": []any{"B08C7KG5LP", "B09B8V1LZ3"},
				},
			},
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, pgLedger.Store(ctx, "key-reject", want))

		got, err := pgLedger.Check(ctx, "key-reject")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.Rejected, got.Rejected)
	})

	t.Run("Store is an upsert", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		require.NoError(t, pgLedger.Store(ctx, "key-1", storedResult("ord-first")))
		require.NoError(t, pgLedger.Store(ctx, "key-1", storedResult("ord-second")))

		got, err := pgLedger.Check(ctx, "key-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ord-second", got.Confirmed.OrderID)
	})

	t.Run("empty key is not memoized", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		require.NoError(t, pgLedger.Store(ctx, "", storedResult("ord-001")))

		got, err := pgLedger.Check(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, got)

		var count int
		require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM idempotency_records").Scan(&count))
		assert.Equal(t, 0, count)
	})

	t.Run("Lock serialises concurrent holders of the same key", func(t *testing.T) {
		counter := 0
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := pgLedger.Lock(ctx, "contended-key")
				if !assert.NoError(t, err) {
					return
				}
				counter++
				unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, counter)
	})

	t.Run("Lock on distinct keys does not block", func(t *testing.T) {
		unlockA, err := pgLedger.Lock(ctx, "key-a")
		require.NoError(t, err)
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB, err := pgLedger.Lock(ctx, "key-b")
			if err == nil {
				unlockB()
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("lock on a different key blocked")
		}
	})
}

func TestPostgresLedger_Expiry_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ctx := context.Background()

	// Short retention so expiry is observable within the test.
	pgLedger, err := ledger.NewPostgresLedger(ctx, testDB.Pool, 100*time.Millisecond, 100*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgLedger.Close() })

	t.Run("expired record is treated as absent", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		require.NoError(t, pgLedger.Store(ctx, "key-exp", storedResult("ord-001")))

		got, err := pgLedger.Check(ctx, "key-exp")
		require.NoError(t, err)
		require.NotNil(t, got)

		time.Sleep(200 * time.Millisecond)

		got, err = pgLedger.Check(ctx, "key-exp")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Reap deletes expired records in bulk", func(t *testing.T) {
		CleanupLedger(t, testDB.Pool)

		require.NoError(t, pgLedger.Store(ctx, "key-1", storedResult("ord-001")))
		require.NoError(t, pgLedger.Store(ctx, "key-2", storedResult("ord-002")))

		time.Sleep(200 * time.Millisecond)

		// The background reaper may have beaten the explicit call to some or
		// all of the records; together they must leave the table empty.
		_, err := pgLedger.Reap(ctx)
		require.NoError(t, err)

		var count int
		require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM idempotency_records").Scan(&count))
		assert.Equal(t, 0, count)
	})
}
