package report

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/store"
	"github.com/ct-tools/cloudscope/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	return db
}

func setupFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	store, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: store,
	}
}

func pendingReport(id, account string) store.Report {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return store.Report{
		ID:          id,
		Account:     account,
		Provider:    "aws",
		ReportType:  "utilization",
		Format:      "pdf",
		Status:      "pending",
		RequestedAt: now,
		UpdatedAt:   now,
	}
}

func TestNewStore(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupFixture(t)
		assert.NotNil(t, f.store)
	})

	t.Run("nil db", func(t *testing.T) {
		store, err := NewStore(nil)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestStore_CreateAndGet(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, f.store.Create(ctx, pendingReport("r-1", "prod")))

		got, err := f.store.Get(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, "prod", got.Account)
		assert.Equal(t, "pending", got.Status)
		assert.Nil(t, got.DownloadURL)
		assert.Nil(t, got.Error)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := f.store.Get(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_UpdateStatus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("completed with a download url", func(t *testing.T) {
		require.NoError(t, f.store.Create(ctx, pendingReport("r-1", "prod")))

		url := "/reports/prod-01-06-2024.pdf"
		require.NoError(t, f.store.UpdateStatus(ctx, "r-1", "completed", &url, nil))

		got, err := f.store.Get(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, "completed", got.Status)
		require.NotNil(t, got.DownloadURL)
		assert.Equal(t, url, *got.DownloadURL)
		assert.Nil(t, got.Error)
	})

	t.Run("failed with a reason", func(t *testing.T) {
		require.NoError(t, f.store.Create(ctx, pendingReport("r-2", "prod")))

		reason := "no metrics found"
		require.NoError(t, f.store.UpdateStatus(ctx, "r-2", "failed", nil, &reason))

		got, err := f.store.Get(ctx, "r-2")
		require.NoError(t, err)
		assert.Equal(t, "failed", got.Status)
		require.NotNil(t, got.Error)
		assert.Equal(t, reason, *got.Error)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := f.store.UpdateStatus(ctx, "ghost", "completed", nil, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_List(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	first := pendingReport("r-1", "prod")
	first.RequestedAt = first.RequestedAt.Add(-time.Hour)
	require.NoError(t, f.store.Create(ctx, first))
	require.NoError(t, f.store.Create(ctx, pendingReport("r-2", "prod")))
	require.NoError(t, f.store.Create(ctx, pendingReport("r-3", "staging")))

	t.Run("all accounts, newest first", func(t *testing.T) {
		reports, err := f.store.List(ctx, "", 10)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.Equal(t, "r-1", reports[2].ID)
	})

	t.Run("filtered by account", func(t *testing.T) {
		reports, err := f.store.List(ctx, "staging", 10)
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, "r-3", reports[0].ID)
	})

	t.Run("limit applies", func(t *testing.T) {
		reports, err := f.store.List(ctx, "", 2)
		require.NoError(t, err)
		assert.Len(t, reports, 2)
	})
}

func TestStore_Stats(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Create(ctx, pendingReport("r-1", "prod")))
	require.NoError(t, f.store.Create(ctx, pendingReport("r-2", "prod")))
	url := "/reports/x.pdf"
	require.NoError(t, f.store.UpdateStatus(ctx, "r-2", "completed", &url, nil))

	stats, err := f.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
	assert.Equal(t, int64(1), stats.ByStatus["completed"])
}

func TestStore_TransactionRollback(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)

	txCtx := duckdb.WithTransaction(ctx, tx)
	require.NoError(t, f.store.Create(txCtx, pendingReport("r-1", "prod")))
	require.NoError(t, tx.Rollback())

	_, err = f.store.Get(ctx, "r-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
