// Package calculations provides the persistent cache for computed results.
// Payloads are opaque encoded blobs stored with an expiration timestamp.
package calculations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TTL constants for cached calculations.
// These are added to time.Now() when storing to calculate expires_at.
const (
	TTLFrontier = 24 * time.Hour // prices change at most once per trading day
)

// Kinds lists every kind of cached calculation.
var Kinds = []string{"frontier"}

var validKinds = func() map[string]bool {
	m := make(map[string]bool, len(Kinds))
	for _, k := range Kinds {
		m[k] = true
	}
	return m
}()

// Cache stores calculation results in the cache database.
type Cache struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewCache creates a new calculation cache.
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		now: time.Now,
		log: log.With().Str("component", "calculation_cache").Logger(),
	}
}

func validateKind(kind string) error {
	if !validKinds[kind] {
		return fmt.Errorf("invalid cache kind: %s", kind)
	}
	return nil
}

// Set saves payload with expiration = now + ttl, replacing any existing entry.
func (c *Cache) Set(kind, key string, payload []byte, ttl time.Duration) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	now := c.now()
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO calculation_cache (kind, key, payload, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		kind, key, payload, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s cache entry: %w", kind, err)
	}
	return nil
}

// Get returns the payload only if it has not expired. Returns nil, nil when
// the key doesn't exist or the entry is stale.
func (c *Cache) Get(kind, key string) ([]byte, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	var payload []byte
	err := c.db.QueryRow(
		"SELECT payload FROM calculation_cache WHERE kind = ? AND key = ? AND expires_at > ?",
		kind, key, c.now().Unix(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s cache entry: %w", kind, err)
	}
	return payload, nil
}

// GetOptimizer returns a fresh optimizer result. Lookup failures are logged
// and reported as a miss.
func (c *Cache) GetOptimizer(kind, key string) ([]byte, bool) {
	payload, err := c.Get(kind, key)
	if err != nil {
		c.log.Warn().Err(err).Str("kind", kind).Msg("Cache lookup failed")
		return nil, false
	}
	return payload, payload != nil
}

// SetOptimizer stores an optimizer result.
func (c *Cache) SetOptimizer(kind, key string, payload []byte, ttl time.Duration) error {
	return c.Set(kind, key, payload, ttl)
}

// DeleteExpired removes all entries whose expires_at has passed.
// Returns the number of rows deleted.
func (c *Cache) DeleteExpired() (int64, error) {
	result, err := c.db.Exec("DELETE FROM calculation_cache WHERE expires_at <= ?", c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Clear removes every entry, fresh or not.
func (c *Cache) Clear() (int64, error) {
	result, err := c.db.Exec("DELETE FROM calculation_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if deleted > 0 {
		c.log.Info().Int64("deleted", deleted).Msg("Cleared calculation cache")
	}
	return deleted, nil
}

// Invalidate clears the cache and logs failures. Used as a sync callback.
func (c *Cache) Invalidate() {
	if _, err := c.Clear(); err != nil {
		c.log.Error().Err(err).Msg("Failed to invalidate calculation cache")
	}
}
