package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-02 and 2024-01-03 14:30 UTC, the NYSE open
const (
	tsJan2 = 1704205800
	tsJan3 = 1704292200
	tsJan4 = 1704378600
)

func chartJSON(symbol string, timestamps string, closes string, adj string) string {
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"symbol":%q,"currency":"USD","gmtoffset":-18000},
		"timestamp":[%s],
		"indicators":{
			"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}],
			"adjclose":[{"adjclose":[%s]}]
		}}],"error":null}}`,
		symbol, timestamps, closes, closes, closes, closes, strings.Repeat("100,", strings.Count(closes, ",")) + "100", adj)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(zerolog.New(nil).Level(zerolog.Disabled))
	client.baseURL = server.URL + "/chart/"
	return client
}

func TestGetHistoricalPrices(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAgent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, chartJSON("AAPL",
			fmt.Sprintf("%d,%d,%d", tsJan2, tsJan3, tsJan4),
			"185.5,null,181.2",
			"184.9,null,180.6"))
	})

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	prices, err := client.GetHistoricalPrices(context.Background(), "AAPL", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/chart/AAPL", gotPath)
	assert.Equal(t, "1d", gotQuery["interval"][0])
	assert.Equal(t, fmt.Sprint(start.Unix()), gotQuery["period1"][0])
	assert.Equal(t, fmt.Sprint(end.AddDate(0, 0, 1).Unix()), gotQuery["period2"][0])
	assert.Contains(t, gotAgent, "Mozilla")

	// The null close is skipped
	require.Len(t, prices, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), prices[0].Date)
	assert.Equal(t, 185.5, prices[0].Close)
	assert.Equal(t, 184.9, prices[0].AdjClose)
	assert.Equal(t, int64(100), prices[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), prices[1].Date)
}

func TestGetHistoricalPrices_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{
			name:     "unknown symbol",
			status:   http.StatusNotFound,
			body:     `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			notFound: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
		},
		{
			name:   "api error",
			status: http.StatusBadRequest,
			body:   `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.GetHistoricalPrices(context.Background(), "XXX", time.Now(), time.Now())
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrSymbolNotFound))
		})
	}
}

func TestHistoricalPrice_Adjusted(t *testing.T) {
	p := HistoricalPrice{Open: 10, High: 12, Low: 8, Close: 10, AdjClose: 5}.Adjusted()
	assert.Equal(t, HistoricalPrice{Open: 5, High: 6, Low: 4, Close: 5, AdjClose: 5}, p)

	unchanged := HistoricalPrice{Close: 10, AdjClose: 10, High: 11}
	assert.Equal(t, unchanged, unchanged.Adjusted())
}

func TestReadPrices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/chart/") {
		case "AAA":
			fmt.Fprint(w, chartJSON("AAA", fmt.Sprintf("%d,%d,%d", tsJan2, tsJan3, tsJan4), "10,11,12", "10,11,12"))
		case "BBB":
			fmt.Fprint(w, chartJSON("BBB", fmt.Sprintf("%d,%d", tsJan2, tsJan4), "20,22", "19,21"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"nope"}}}`)
		}
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	table, err := client.ReadPrices(context.Background(), []string{"BBB", "AAA"}, start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB", "AAA"}, table.Tickers())
	require.Equal(t, 2, table.Len())
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), table.Date(0))
	assert.Equal(t, 21.0, table.At(0, 0), "adjusted closes are used")
	assert.Equal(t, 12.0, table.At(0, 1))

	_, err = client.ReadPrices(context.Background(), []string{"AAA", "ZZZ"}, start, end)
	assert.ErrorIs(t, err, optimization.ErrUnknownTicker)
}
