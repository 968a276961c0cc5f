package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestDB_SeedDailyPrices(t *testing.T) {
	db, cleanup := NewTestDB(t, "history")
	defer cleanup()

	fixtures := NewPriceFixtures(10, "AAA", "BBB")
	require.Len(t, fixtures, 20)
	SeedDailyPrices(t, db.Conn(), fixtures)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM daily_prices").Scan(&count))
	assert.Equal(t, 20, count)

	// Idempotent cleanup
	cleanup()
	cleanup()
}

func TestNewTestDBWithSchema(t *testing.T) {
	db, cleanup := NewTestDBWithSchema(t, "scratch", "CREATE TABLE notes (body TEXT)")
	defer cleanup()

	_, err := db.Conn().Exec("INSERT INTO notes (body) VALUES ('ok')")
	assert.NoError(t, err)
}
