package optimization

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(k int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, k)
}

// tableFromOldest builds a newest-first table from rows given oldest first.
// Row k (oldest first) is dated day(k).
func tableFromOldest(t *testing.T, tickers []string, oldest [][]float64) *PriceTable {
	t.Helper()
	n := len(oldest)
	dates := make([]time.Time, n)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		k := n - 1 - i
		dates[i] = day(k)
		rows[i] = oldest[k]
	}
	table, err := NewPriceTable(dates, tickers, rows)
	require.NoError(t, err)
	return table
}

// syntheticPrices generates a deterministic, well-conditioned price history
// for width tickers, oldest first.
func syntheticPrices(rows, width int) [][]float64 {
	out := make([][]float64, rows)
	prev := make([]float64, width)
	for j := range prev {
		prev[j] = 100 + 10*float64(j)
	}
	for k := 0; k < rows; k++ {
		row := make([]float64, width)
		for j := range row {
			if k == 0 {
				row[j] = prev[j]
				continue
			}
			r := 0.001*float64(j+1) + 0.01*math.Sin(float64(k*(j+1))*0.7+float64(j))
			row[j] = prev[j] * (1 + r)
		}
		out[k] = row
		prev = row
	}
	return out
}
