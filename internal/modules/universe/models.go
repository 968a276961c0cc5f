package universe

import (
	"encoding/json"
	"time"
)

// Asset is a tradable ticker known to the universe.
// LastSynced is a Unix timestamp, converted to RFC3339 at the JSON boundary.
type Asset struct {
	Ticker     string `json:"ticker"`
	Name       string `json:"name,omitempty"`
	LastSynced *int64 `json:"-"`
}

// MarshalJSON converts the Unix sync timestamp to an RFC3339 string
func (a Asset) MarshalJSON() ([]byte, error) {
	type Alias Asset
	aux := &struct {
		LastSynced string `json:"last_synced,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(&a),
	}

	if a.LastSynced != nil {
		aux.LastSynced = time.Unix(*a.LastSynced, 0).UTC().Format(time.RFC3339)
	}

	return json.Marshal(aux)
}

// PortfolioVersion is an ordered set of tickers frontiers are computed for.
type PortfolioVersion struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name,omitempty"`
	Tickers []string `json:"tickers"`
}

// DailyPrice represents a daily OHLCV price point
type DailyPrice struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// HistoricalPriceData represents historical price data from any source.
type HistoricalPriceData struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// ToDailyPrice converts provider data into the stored representation.
func (p HistoricalPriceData) ToDailyPrice() DailyPrice {
	volume := p.Volume
	return DailyPrice{
		Date:   p.Date.UTC().Format("2006-01-02"),
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: &volume,
	}
}

// SyncReport summarizes one historical sync run.
type SyncReport struct {
	Tickers  int               `json:"tickers"`
	Synced   int               `json:"synced"`
	Skipped  int               `json:"skipped"`
	Rows     int               `json:"rows"`
	Rejected int               `json:"rejected"`
	Failed   map[string]string `json:"failed,omitempty"`
}
