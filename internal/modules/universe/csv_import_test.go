package universe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceCSV(t *testing.T) {
	t.Run("prefers adjusted close", func(t *testing.T) {
		input := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
			"2024-01-02,10,11,9,10.5,10.25,1000\n" +
			"2024-01-03,10.5,11.5,10,11,10.75,1200\n"

		prices, err := ParsePriceCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, prices, 2)

		assert.Equal(t, "2024-01-02", prices[0].Date)
		assert.Equal(t, 10.25, prices[0].Close)
		assert.Equal(t, 11.0, prices[0].High)
		require.NotNil(t, prices[1].Volume)
		assert.Equal(t, int64(1200), *prices[1].Volume)
	})

	t.Run("close only with alternate date format", func(t *testing.T) {
		input := "date, close\n2024/01/02, 100\n"

		prices, err := ParsePriceCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, []DailyPrice{{Date: "2024-01-02", Close: 100}}, prices)
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no rows", "Date,Close\n", "no data rows"},
		{"no date column", "Day,Close\n1,2\n", "missing a Date column"},
		{"no close column", "Date,Open\n2024-01-02,2\n", "missing a Close column"},
		{"bad date", "Date,Close\nyesterday,2\n", "line 2: invalid date"},
		{"bad close", "Date,Close\n2024-01-02,abc\n", "line 2: invalid close"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePriceCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
