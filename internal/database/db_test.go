package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	db, err := New(Config{Path: path, Name: "history"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, "history", db.Name())
	assert.Equal(t, path, db.Path())
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestBuildConnectionString(t *testing.T) {
	standard := buildConnectionString("/data/universe.db", ProfileStandard)
	assert.Contains(t, standard, "journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")
	assert.Contains(t, standard, "foreign_keys(1)")

	cache := buildConnectionString("/data/cache.db", ProfileCache)
	assert.Contains(t, cache, "synchronous(OFF)")
	assert.Contains(t, cache, "auto_vacuum(FULL)")
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{name: "universe", table: "portfolio_assets"},
		{name: "history", table: "daily_prices"},
		{name: "cache", table: "calculation_cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t, tt.name, ProfileStandard)
			require.NoError(t, db.Migrate())
			// Idempotent
			require.NoError(t, db.Migrate())

			var count int
			err := db.Conn().QueryRow(
				"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", tt.table,
			).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestMigrate_UnknownDatabase(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	assert.NoError(t, db.Migrate())
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	_, err := db.Conn().Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
		return n
	}

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (id) VALUES (1)")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (2)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO items (id) VALUES (3)")
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestHealthCheckAndStats(t *testing.T) {
	db := newTestDB(t, "history", ProfileStandard)
	require.NoError(t, db.Migrate())

	require.NoError(t, db.HealthCheck(context.Background()))
	require.NoError(t, db.WALCheckpoint(""))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestVacuumInto(t *testing.T) {
	db := newTestDB(t, "history", ProfileStandard)
	require.NoError(t, db.Migrate())
	_, err := db.Conn().Exec("INSERT INTO daily_prices (ticker, date, close) VALUES ('SPY', 1704067200, 470.5)")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.VacuumInto(context.Background(), dest))

	snapshot, err := New(Config{Path: dest, Name: "history"})
	require.NoError(t, err)
	defer snapshot.Close()

	var close float64
	require.NoError(t, snapshot.Conn().QueryRow("SELECT close FROM daily_prices WHERE ticker = 'SPY'").Scan(&close))
	assert.Equal(t, 470.5, close)
}
