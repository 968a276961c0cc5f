package yahoo

import "time"

// HistoricalPrice represents a single daily OHLCV data point
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// Adjusted returns the bar with open, high, low and close scaled by the
// split and dividend adjustment, so that Close equals AdjClose.
func (p HistoricalPrice) Adjusted() HistoricalPrice {
	if p.Close == 0 || p.AdjClose == 0 || p.AdjClose == p.Close {
		return p
	}
	factor := p.AdjClose / p.Close
	p.Open *= factor
	p.High *= factor
	p.Low *= factor
	p.Close = p.AdjClose
	return p
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}
