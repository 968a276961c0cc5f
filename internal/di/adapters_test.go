package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	bars []yahoo.HistoricalPrice
	err  error
}

func (s *stubProvider) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error) {
	return s.bars, s.err
}

func TestYahooFetcher_AdjustsBars(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	fetcher := &yahooFetcher{client: &stubProvider{bars: []yahoo.HistoricalPrice{
		{Date: day, Open: 100, High: 110, Low: 90, Close: 100, AdjClose: 50, Volume: 1000},
	}}}

	prices, err := fetcher.GetHistoricalPrices(context.Background(), "AAA", day, day)
	require.NoError(t, err)
	require.Len(t, prices, 1)

	assert.Equal(t, day, prices[0].Date)
	assert.InDelta(t, 50.0, prices[0].Close, 1e-9)
	assert.InDelta(t, 55.0, prices[0].High, 1e-9)
	assert.InDelta(t, 45.0, prices[0].Low, 1e-9)
	assert.Equal(t, int64(1000), prices[0].Volume)
}

func TestYahooFetcher_Error(t *testing.T) {
	fetcher := &yahooFetcher{client: &stubProvider{err: yahoo.ErrSymbolNotFound}}

	_, err := fetcher.GetHistoricalPrices(context.Background(), "ZZZ", time.Now(), time.Now())
	assert.True(t, errors.Is(err, yahoo.ErrSymbolNotFound))
}
