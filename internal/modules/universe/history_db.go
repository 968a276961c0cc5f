package universe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/utils"
	"github.com/rs/zerolog"
)

// HistoryDB provides access to historical price data
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// GetDailyPrices fetches the most recent daily prices for a ticker, newest first
func (h *HistoryDB) GetDailyPrices(ticker string, limit int) ([]DailyPrice, error) {
	query := `
		SELECT date, close, high, low, open, volume
		FROM daily_prices
		WHERE ticker = ?
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := h.db.Query(query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	prices := []DailyPrice{}
	for rows.Next() {
		var p DailyPrice
		var dateUnix int64
		var open, high, low sql.NullFloat64
		var volume sql.NullInt64

		if err := rows.Scan(&dateUnix, &p.Close, &high, &low, &open, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		p.Date = utils.UnixToDate(dateUnix)
		p.Open = open.Float64
		p.High = high.Float64
		p.Low = low.Float64
		if volume.Valid {
			p.Volume = &volume.Int64
		}

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// ReadPrices returns the closes of tickers between start and end inclusive.
// Only dates on which every ticker has a close are kept, newest first.
func (h *HistoryDB) ReadPrices(ctx context.Context, tickers []string, start, end time.Time) (*optimization.PriceTable, error) {
	if len(tickers) == 0 {
		return optimization.NewPriceTable(nil, nil, nil)
	}
	done := utils.MeasureDBQuery("read_prices", h.log)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tickers)), ",")
	args := make([]interface{}, 0, len(tickers)+2)
	for _, ticker := range tickers {
		args = append(args, ticker)
	}
	args = append(args, utils.TruncateToDay(start).Unix(), utils.TruncateToDay(end).Unix())

	rows, err := h.db.QueryContext(ctx, `
		SELECT ticker, date, close
		FROM daily_prices
		WHERE ticker IN (`+placeholders+`) AND date >= ? AND date <= ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	closes := make(map[string]map[int64]float64, len(tickers))
	var count int64
	for rows.Next() {
		var ticker string
		var date int64
		var close float64
		if err := rows.Scan(&ticker, &date, &close); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		if closes[ticker] == nil {
			closes[ticker] = make(map[int64]float64)
		}
		closes[ticker][date] = close
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	done(count)

	for _, ticker := range tickers {
		if len(closes[ticker]) == 0 {
			h.log.Warn().Str("ticker", ticker).Msg("No stored prices in requested range")
		}
	}

	table, err := optimization.JoinCloses(tickers, closes)
	if err != nil {
		return nil, fmt.Errorf("failed to build price table: %w", err)
	}
	return table, nil
}

// LatestDate returns the most recent stored date for ticker. ok is false when
// nothing is stored.
func (h *HistoryDB) LatestDate(ctx context.Context, ticker string) (time.Time, bool, error) {
	var latest sql.NullInt64
	err := h.db.QueryRowContext(ctx, "SELECT MAX(date) FROM daily_prices WHERE ticker = ?", ticker).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get latest date for %s: %w", ticker, err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(latest.Int64, 0).UTC(), true, nil
}

// SyncHistoricalPrices inserts or replaces daily prices for ticker in a single
// transaction.
func (h *HistoryDB) SyncHistoricalPrices(ticker string, prices []DailyPrice, source string) error {
	err := database.WithTransaction(h.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO daily_prices
			(ticker, date, open, high, low, close, volume, adjusted_close, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, price := range prices {
			volume := sql.NullInt64{}
			if price.Volume != nil {
				volume.Int64 = *price.Volume
				volume.Valid = true
			}

			dateUnix, err := utils.DateToUnix(price.Date)
			if err != nil {
				return fmt.Errorf("failed to parse date %s: %w", price.Date, err)
			}

			if _, err := stmt.Exec(
				ticker,
				dateUnix,
				price.Open,
				price.High,
				price.Low,
				price.Close,
				volume,
				price.Close, // Use close as adjusted_close
				source,
			); err != nil {
				return fmt.Errorf("failed to insert daily price for %s: %w", price.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.log.Info().
		Str("ticker", ticker).
		Str("source", source).
		Int("count", len(prices)).
		Msg("Synced historical prices")

	return nil
}

// CountPrices returns the number of stored rows per ticker.
func (h *HistoryDB) CountPrices(ctx context.Context) (map[string]int, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT ticker, COUNT(*) FROM daily_prices GROUP BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to count prices: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ticker string
		var n int
		if err := rows.Scan(&ticker, &n); err != nil {
			return nil, fmt.Errorf("failed to scan price count: %w", err)
		}
		counts[ticker] = n
	}
	return counts, rows.Err()
}
