package universe

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPriceValidator_ValidatePrice(t *testing.T) {
	validator := NewPriceValidator(zerolog.Nop())

	tests := []struct {
		name      string
		price     DailyPrice
		prevClose float64
		want      bool
		reason    string
	}{
		{
			name:  "valid OHLC",
			price: DailyPrice{Date: "2025-01-15", Open: 50, High: 55, Low: 48, Close: 52},
			want:  true,
		},
		{
			name:  "close only",
			price: DailyPrice{Date: "2025-01-15", Close: 52},
			want:  true,
		},
		{
			name:  "zero close is kept",
			price: DailyPrice{Date: "2025-01-15", Close: 0},
			want:  true,
		},
		{
			name:   "bad date",
			price:  DailyPrice{Date: "15/01/2025", Close: 52},
			reason: "invalid_date",
		},
		{
			name:   "NaN close",
			price:  DailyPrice{Date: "2025-01-15", Close: math.NaN()},
			reason: "non_finite_close",
		},
		{
			name:   "infinite close",
			price:  DailyPrice{Date: "2025-01-15", Close: math.Inf(1)},
			reason: "non_finite_close",
		},
		{
			name:   "negative close",
			price:  DailyPrice{Date: "2025-01-15", Close: -1},
			reason: "negative_close",
		},
		{
			name:   "high below low",
			price:  DailyPrice{Date: "2025-01-15", Open: 50, High: 45, Low: 48, Close: 46},
			reason: "high_below_low",
		},
		{
			name:   "close above high",
			price:  DailyPrice{Date: "2025-01-15", Open: 50, High: 50, Low: 48, Close: 55},
			reason: "high_below_close",
		},
		{
			name:   "close below low",
			price:  DailyPrice{Date: "2025-01-15", Open: 50, High: 55, Low: 50, Close: 45},
			reason: "low_above_close",
		},
		{
			name:      "spike",
			price:     DailyPrice{Date: "2025-01-15", Close: 1200},
			prevClose: 100,
			reason:    "spike_detected",
		},
		{
			name:      "crash",
			price:     DailyPrice{Date: "2025-01-15", Close: 5},
			prevClose: 100,
			reason:    "crash_detected",
		},
		{
			name:      "normal move",
			price:     DailyPrice{Date: "2025-01-15", Close: 103},
			prevClose: 100,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := validator.ValidatePrice(tt.price, tt.prevClose)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestPriceValidator_Validate(t *testing.T) {
	validator := NewPriceValidator(zerolog.Nop())

	prices := []DailyPrice{
		{Date: "2025-01-03", Close: 102},
		{Date: "2025-01-01", Close: 100},
		{Date: "2025-01-02", Close: 5000}, // spike against 100
		{Date: "2025-01-04", Close: 101},
		{Date: "2025-01-04", Close: 104}, // duplicate date, last one wins
	}

	accepted, rejected := validator.Validate(prices)

	assert.Equal(t, []DailyPrice{
		{Date: "2025-01-01", Close: 100},
		{Date: "2025-01-03", Close: 102},
		{Date: "2025-01-04", Close: 104},
	}, accepted)
	assert.Equal(t, []Rejection{{Date: "2025-01-02", Close: 5000, Reason: "spike_detected"}}, rejected)
}
