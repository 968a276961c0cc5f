// Package testing provides testing utilities and helpers for the frontier project.
package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aristath/frontier/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a per-test temporary
// directory and applies the embedded schema for name.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is idempotent and can be called multiple times safely.
//
// Supported schema names:
//   - "universe" - assets, portfolio versions and their members
//   - "history" - daily prices
//   - "cache" - calculation cache
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	profile := database.ProfileStandard
	if name == "cache" {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name)),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
}

// NewTestDBWithSchema creates an empty test database and executes schema on it.
func NewTestDBWithSchema(t *testing.T, name string, schema string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name)),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if schema != "" {
		if _, err := db.Conn().Exec(schema); err != nil {
			_ = db.Close()
			t.Fatalf("Failed to execute custom schema for test database %s: %v", name, err)
		}
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
}
