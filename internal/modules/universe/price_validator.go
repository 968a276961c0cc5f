package universe

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	// maxPriceChangePercent is the day-over-day rise treated as a data spike
	maxPriceChangePercent = 1000.0
	// minPriceChangePercent is the day-over-day fall treated as a data crash
	minPriceChangePercent = -90.0
)

// Rejection records a price the validator dropped
type Rejection struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Reason string  `json:"reason"`
}

// PriceValidator drops prices that would corrupt return estimates. Prices
// are never interpolated: a dropped date simply has no close for that ticker
// and falls out of the date join.
type PriceValidator struct {
	log zerolog.Logger
}

// NewPriceValidator creates a new price validator
func NewPriceValidator(log zerolog.Logger) *PriceValidator {
	return &PriceValidator{
		log: log.With().Str("component", "price_validator").Logger(),
	}
}

// ValidatePrice checks a single price against the previous accepted close.
// prevClose <= 0 disables the change check. Returns (isValid, reason).
func (v *PriceValidator) ValidatePrice(price DailyPrice, prevClose float64) (bool, string) {
	if _, err := time.Parse("2006-01-02", price.Date); err != nil {
		return false, "invalid_date"
	}
	if math.IsNaN(price.Close) || math.IsInf(price.Close, 0) {
		return false, "non_finite_close"
	}
	if price.Close < 0 {
		return false, "negative_close"
	}

	// OHLC consistency, only when the source provided a range
	if price.High > 0 || price.Low > 0 {
		if price.High < price.Low {
			return false, "high_below_low"
		}
		if price.Close > price.High {
			return false, "high_below_close"
		}
		if price.Close < price.Low {
			return false, "low_above_close"
		}
	}

	if prevClose > 0 {
		changePercent := (price.Close - prevClose) / prevClose * 100.0
		if changePercent > maxPriceChangePercent {
			return false, "spike_detected"
		}
		if changePercent < minPriceChangePercent {
			return false, "crash_detected"
		}
	}

	return true, ""
}

// Validate sorts prices oldest first and returns the accepted ones together
// with a record of every rejection. Duplicate dates keep the last occurrence.
func (v *PriceValidator) Validate(prices []DailyPrice) ([]DailyPrice, []Rejection) {
	byDate := make(map[string]DailyPrice, len(prices))
	for _, p := range prices {
		byDate[p.Date] = p
	}
	ordered := make([]DailyPrice, 0, len(byDate))
	for _, p := range byDate {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	accepted := make([]DailyPrice, 0, len(ordered))
	var rejected []Rejection
	prevClose := 0.0
	for _, p := range ordered {
		ok, reason := v.ValidatePrice(p, prevClose)
		if !ok {
			rejected = append(rejected, Rejection{Date: p.Date, Close: p.Close, Reason: reason})
			v.log.Warn().
				Str("date", p.Date).
				Float64("close", p.Close).
				Str("reason", reason).
				Msg("Rejected abnormal price")
			continue
		}
		accepted = append(accepted, p)
		prevClose = p.Close
	}

	return accepted, rejected
}
