package universe

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/modules/optimization"
	testingpkg "github.com/aristath/frontier/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryDB(t *testing.T) *HistoryDB {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanup)
	return NewHistoryDB(db.Conn(), zerolog.Nop())
}

func TestHistoryDB_SyncAndGetDailyPrices(t *testing.T) {
	history := newTestHistoryDB(t)
	volume := int64(500)

	err := history.SyncHistoricalPrices("AAPL", []DailyPrice{
		{Date: "2024-01-02", Open: 10, High: 11, Low: 9, Close: 10.5, Volume: &volume},
		{Date: "2024-01-03", Close: 11},
	}, "test")
	require.NoError(t, err)

	// Replacing an existing date updates it
	err = history.SyncHistoricalPrices("AAPL", []DailyPrice{{Date: "2024-01-03", Close: 12}}, "test")
	require.NoError(t, err)

	prices, err := history.GetDailyPrices("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2024-01-03", prices[0].Date, "newest first")
	assert.Equal(t, 12.0, prices[0].Close)
	assert.Equal(t, "2024-01-02", prices[1].Date)
	require.NotNil(t, prices[1].Volume)
	assert.Equal(t, volume, *prices[1].Volume)

	limited, err := history.GetDailyPrices("AAPL", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistoryDB_SyncHistoricalPrices_BadDate(t *testing.T) {
	history := newTestHistoryDB(t)

	err := history.SyncHistoricalPrices("AAPL", []DailyPrice{
		{Date: "2024-01-02", Close: 1},
		{Date: "not-a-date", Close: 2},
	}, "test")
	require.Error(t, err)

	// The transaction rolled back the valid row too
	prices, err := history.GetDailyPrices("AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestHistoryDB_LatestDate(t *testing.T) {
	history := newTestHistoryDB(t)
	ctx := context.Background()

	_, ok, err := history.LatestDate(ctx, "MSFT")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, history.SyncHistoricalPrices("MSFT", []DailyPrice{
		{Date: "2024-02-01", Close: 1},
		{Date: "2024-02-05", Close: 2},
	}, "test"))

	latest, ok, err := history.LatestDate(ctx, "MSFT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), latest)
}

func TestHistoryDB_ReadPrices(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "history")
	defer cleanup()
	history := NewHistoryDB(db.Conn(), zerolog.Nop())

	fixtures := testingpkg.NewPriceFixtures(10, "AAA", "BBB")
	testingpkg.SeedDailyPrices(t, db.Conn(), fixtures)
	// BBB is missing the last day, so that date drops out of the join
	_, err := db.Conn().Exec("DELETE FROM daily_prices WHERE ticker = 'BBB' AND date = ?",
		testingpkg.FixtureStart.AddDate(0, 0, 9).Unix())
	require.NoError(t, err)

	start := testingpkg.FixtureStart.AddDate(0, 0, 2)
	end := testingpkg.FixtureStart.AddDate(0, 0, 9)
	table, err := history.ReadPrices(context.Background(), []string{"BBB", "AAA"}, start, end)
	require.NoError(t, err)

	assert.Equal(t, []string{"BBB", "AAA"}, table.Tickers())
	require.Equal(t, 7, table.Len())
	assert.Equal(t, testingpkg.FixtureStart.AddDate(0, 0, 8), table.Date(0), "newest first")
	assert.Equal(t, start, table.Date(table.Len()-1))

	// Closes come back in the requested column order
	for _, f := range fixtures {
		if f.Ticker == "AAA" && f.Date.Equal(table.Date(0)) {
			assert.Equal(t, f.Close, table.At(0, 1))
		}
	}
}

func TestHistoryDB_ReadPrices_UnknownTicker(t *testing.T) {
	history := newTestHistoryDB(t)
	require.NoError(t, history.SyncHistoricalPrices("AAA", []DailyPrice{{Date: "2024-01-02", Close: 1}}, "test"))

	table, err := history.ReadPrices(context.Background(), []string{"AAA", "ZZZ"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// With no shared dates the table is empty and the pipeline reports it
	assert.Equal(t, 0, table.Len())
	_, err = optimization.NewPipeline(nil, zerolog.Nop()).Run(context.Background(), []string{"AAA", "ZZZ"}, table)
	var insufficient *optimization.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestHistoryDB_CountPrices(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "history")
	defer cleanup()
	testingpkg.SeedDailyPrices(t, db.Conn(), testingpkg.NewPriceFixtures(4, "AAA", "BBB"))

	counts, err := NewHistoryDB(db.Conn(), zerolog.Nop()).CountPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"AAA": 4, "BBB": 4}, counts)
}
