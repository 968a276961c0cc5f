package testing

import (
	"database/sql"
	"math"
	"testing"
	"time"
)

// PriceFixture is one daily close.
type PriceFixture struct {
	Ticker string
	Date   time.Time
	Close  float64
}

// FixtureStart is the first date of NewPriceFixtures.
var FixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewPriceFixtures returns days consecutive daily closes per ticker starting
// at FixtureStart. Each ticker follows its own deterministic drift and cycle,
// so the resulting return series are linearly independent.
func NewPriceFixtures(days int, tickers ...string) []PriceFixture {
	fixtures := make([]PriceFixture, 0, days*len(tickers))
	for j, ticker := range tickers {
		price := 50 + 25*float64(j)
		for k := 0; k < days; k++ {
			if k > 0 {
				r := 0.0005*float64(j+1) + 0.012*math.Sin(float64(k*(j+2))*0.45+float64(j))
				price *= 1 + r
			}
			fixtures = append(fixtures, PriceFixture{
				Ticker: ticker,
				Date:   FixtureStart.AddDate(0, 0, k),
				Close:  price,
			})
		}
	}
	return fixtures
}

// SeedDailyPrices inserts fixtures into a migrated history database.
func SeedDailyPrices(t *testing.T, db *sql.DB, fixtures []PriceFixture) {
	t.Helper()

	for _, f := range fixtures {
		_, err := db.Exec(
			`INSERT OR REPLACE INTO daily_prices (ticker, date, open, high, low, close, adjusted_close, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 'fixture')`,
			f.Ticker, f.Date.Unix(), f.Close, f.Close, f.Close, f.Close, f.Close,
		)
		if err != nil {
			t.Fatalf("Failed to seed price for %s on %s: %v", f.Ticker, f.Date.Format("2006-01-02"), err)
		}
	}
}
