package universe

import (
	"context"
	"time"
)

// HistoricalDataFetcher fetches daily prices for one symbol from a market-data
// provider. Implemented by the Yahoo client adapter in di.
type HistoricalDataFetcher interface {
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]HistoricalPriceData, error)
}

// HistoryDBInterface defines the contract for history database operations
// Used by HistoricalSyncService to enable testing with mocks
type HistoryDBInterface interface {
	LatestDate(ctx context.Context, ticker string) (time.Time, bool, error)
	SyncHistoricalPrices(ticker string, prices []DailyPrice, source string) error
}

// AssetStore is the part of AssetRepository the sync service needs.
type AssetStore interface {
	AllTickers(ctx context.Context) ([]string, error)
	MarkSynced(ctx context.Context, ticker string, at time.Time) error
}
