package optimization

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// weightPlaces is the number of decimals weights are written with.
const weightPlaces = 10

// Response is the payload returned for one optimisation request. The JSON
// field names are part of the public contract. An empty portfolio produces a
// zero Response, which encodes as {}.
type Response struct {
	Assets                       []string     `json:"assets,omitempty"`
	Portfolios                   WeightMatrix `json:"portfolios,omitempty"`
	AnnualizedExpectedReturns    []float64    `json:"annualizedExpectedReturns,omitempty"`
	AnnualizedExpectedVolatility []float64    `json:"annualizedExpectedVolatility,omitempty"`
	Dates                        []float64    `json:"dates,omitempty"`
	PortfolioIndexes             [][]float64  `json:"portfolio_indexes,omitempty"`
}

// NewResponse converts a pipeline result into the response payload.
func NewResponse(result *Result) *Response {
	if result.Empty() {
		return &Response{}
	}

	weights := make(WeightMatrix, result.Frontier.Len())
	for i, w := range result.Frontier.Portfolios {
		weights[i] = append([]float64(nil), w...)
	}

	return &Response{
		Assets:                       append([]string(nil), result.Tickers...),
		Portfolios:                   weights,
		AnnualizedExpectedReturns:    result.AnnualizedReturns,
		AnnualizedExpectedVolatility: result.AnnualizedVolatility,
		Dates:                        result.Dates,
		PortfolioIndexes:             result.Indexes,
	}
}

// Empty reports whether the response carries no frontier.
func (r *Response) Empty() bool {
	return r == nil || len(r.Assets) == 0
}

// WeightMatrix holds one weight vector per frontier portfolio. It is encoded
// as a JSON string containing the array of arrays, weights written with 10
// decimals, which is the shape existing clients parse.
type WeightMatrix [][]float64

// MarshalJSON implements json.Marshaler.
func (m WeightMatrix) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, w := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(decimal.NewFromFloat(w).Round(weightPlaces).String())
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return json.Marshal(b.String())
}

// UnmarshalJSON implements json.Unmarshaler. Both the string form and a plain
// array of arrays are accepted.
func (m *WeightMatrix) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		data = []byte(encoded)
	}

	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("invalid portfolio weights: %w", err)
	}
	*m = rows
	return nil
}
