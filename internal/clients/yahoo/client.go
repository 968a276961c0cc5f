package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	// maxConcurrentRequests bounds parallel chart requests in ReadPrices.
	maxConcurrentRequests = 4
)

// ErrSymbolNotFound is returned when Yahoo has no chart for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Client is a Yahoo Finance chart API client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetHistoricalPrices fetches daily OHLCV data for symbol between start and
// end inclusive, oldest first. Dates are exchange-local calendar days at
// midnight UTC.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]HistoricalPrice, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(truncateDay(start).Unix(), 10))
	// period2 is exclusive
	params.Add("period2", strconv.FormatInt(truncateDay(end).AddDate(0, 0, 1).Unix(), 10))
	params.Add("events", "div,split")

	reqURL := c.baseURL + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("Yahoo Finance API error: %s", result.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Yahoo Finance API returned status %d", resp.StatusCode)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No quote data in response")
		return []HistoricalPrice{}, nil
	}
	quote := chartData.Indicators.Quote[0]

	var adjCloseData []*float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloseData = chartData.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]HistoricalPrice, 0, len(chartData.Timestamp))
	for i, ts := range chartData.Timestamp {
		// Yahoo returns nulls for halted or partial days
		closePrice := valueAt(quote.Close, i)
		if closePrice == nil {
			continue
		}

		p := HistoricalPrice{
			Date:     truncateDay(time.Unix(ts+chartData.Meta.GMTOffset, 0)),
			Close:    *closePrice,
			AdjClose: *closePrice,
		}
		if v := valueAt(quote.Open, i); v != nil {
			p.Open = *v
		}
		if v := valueAt(quote.High, i); v != nil {
			p.High = *v
		}
		if v := valueAt(quote.Low, i); v != nil {
			p.Low = *v
		}
		if v := valueAt(quote.Volume, i); v != nil {
			p.Volume = *v
		}
		if v := valueAt(adjCloseData, i); v != nil && *v != 0 {
			p.AdjClose = *v
		}

		// The chart API can append today's intraday bar with the same day
		if n := len(prices); n > 0 && prices[n-1].Date.Equal(p.Date) {
			prices[n-1] = p
			continue
		}
		prices = append(prices, p)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Time("start", start).
		Time("end", end).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// ReadPrices fetches adjusted closes for every ticker and joins them on the
// dates all tickers traded, newest first.
func (c *Client) ReadPrices(ctx context.Context, tickers []string, start, end time.Time) (*optimization.PriceTable, error) {
	series := make([][]HistoricalPrice, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			prices, err := c.GetHistoricalPrices(gctx, ticker, start, end)
			if err != nil {
				if errors.Is(err, ErrSymbolNotFound) {
					return fmt.Errorf("%w: %s", optimization.ErrUnknownTicker, ticker)
				}
				return fmt.Errorf("failed to fetch %s: %w", ticker, err)
			}
			series[i] = prices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	closes := make(map[string]map[int64]float64, len(tickers))
	for i, ticker := range tickers {
		byDate := make(map[int64]float64, len(series[i]))
		for _, p := range series[i] {
			byDate[p.Date.Unix()] = p.AdjClose
		}
		closes[ticker] = byDate
	}

	return optimization.JoinCloses(tickers, closes)
}

func valueAt[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
