package optimization

import (
	"context"
	"time"
)

// PriceReader provides daily closing prices for a set of tickers over a date
// range. Implementations return only the dates on which every ticker has a
// close, newest first.
type PriceReader interface {
	ReadPrices(ctx context.Context, tickers []string, start, end time.Time) (*PriceTable, error)
}

// AssetLister resolves the tickers held by a portfolio version, in position
// order. An unknown or empty version yields an empty slice.
type AssetLister interface {
	ListTickers(ctx context.Context, portfolioVersionID int64) ([]string, error)
}

// ResultCache stores encoded optimisation results.
// Implemented by calculations.Cache.
type ResultCache interface {
	GetOptimizer(kind, key string) ([]byte, bool)
	SetOptimizer(kind, key string, data []byte, ttl time.Duration) error
	Invalidate()
}
