package di

import (
	"context"
	"time"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/modules/universe"
)

// yahooProvider is the part of yahoo.Client the fetcher adapter needs
type yahooProvider interface {
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error)
}

// yahooFetcher adapts the Yahoo client to universe.HistoricalDataFetcher.
// Bars are dividend and split adjusted before they are stored.
type yahooFetcher struct {
	client yahooProvider
}

func (f *yahooFetcher) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]universe.HistoricalPriceData, error) {
	bars, err := f.client.GetHistoricalPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]universe.HistoricalPriceData, len(bars))
	for i, bar := range bars {
		adj := bar.Adjusted()
		out[i] = universe.HistoricalPriceData{
			Date:   adj.Date,
			Open:   adj.Open,
			High:   adj.High,
			Low:    adj.Low,
			Close:  adj.Close,
			Volume: adj.Volume,
		}
	}
	return out, nil
}
