package calculations

import (
	"database/sql"
	"testing"
	"time"

	"github.com/aristath/frontier/pkg/embedded"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, ok, err := embedded.Schema("cache")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

func newTestCache(t *testing.T, now time.Time) *Cache {
	cache := NewCache(setupTestDB(t), zerolog.Nop())
	cache.now = func() time.Time { return now }
	return cache
}

var cacheNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t, cacheNow)

	require.NoError(t, cache.Set("frontier", "k1", []byte{0x81, 0xa1, 0x61}, time.Hour))

	payload, err := cache.Get("frontier", "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x81, 0xa1, 0x61}, payload)

	payload, err = cache.Get("frontier", "k2")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestCache_Upsert(t *testing.T) {
	cache := newTestCache(t, cacheNow)

	require.NoError(t, cache.Set("frontier", "k1", []byte("old"), time.Hour))
	require.NoError(t, cache.Set("frontier", "k1", []byte("new"), time.Hour))

	payload, ok := cache.GetOptimizer("frontier", "k1")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), payload)
}

func TestCache_Expired(t *testing.T) {
	cache := newTestCache(t, cacheNow)
	require.NoError(t, cache.SetOptimizer("frontier", "k1", []byte("v"), time.Hour))

	cache.now = func() time.Time { return cacheNow.Add(2 * time.Hour) }

	_, ok := cache.GetOptimizer("frontier", "k1")
	assert.False(t, ok)

	deleted, err := cache.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestCache_InvalidKind(t *testing.T) {
	cache := newTestCache(t, cacheNow)

	assert.Error(t, cache.Set("bogus", "k", []byte("v"), time.Hour))
	_, err := cache.Get("bogus", "k")
	assert.Error(t, err)

	_, ok := cache.GetOptimizer("bogus", "k")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	cache := newTestCache(t, cacheNow)
	require.NoError(t, cache.Set("frontier", "a", []byte("1"), time.Hour))
	require.NoError(t, cache.Set("frontier", "b", []byte("2"), time.Hour))

	deleted, err := cache.Clear()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	cache.Invalidate()
	_, ok := cache.GetOptimizer("frontier", "a")
	assert.False(t, ok)
}
