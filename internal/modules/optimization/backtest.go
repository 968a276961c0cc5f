package optimization

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	// SampleInterval keeps one price row in five (weekly for daily data).
	SampleInterval = 5
	// IndexBase is the value every index series starts at.
	IndexBase = 100.0
	// IndexPrecision is the number of decimals index values are rounded to.
	IndexPrecision = 1
	// dateScale turns nanoseconds into the millisecond timestamps of the response.
	dateScale = 1e6
)

// Backtest rebuilds a base-100 value index for every frontier portfolio.
//
// The newest-first price table is reversed to oldest first and every
// SampleInterval-th row is kept, starting with the oldest. Each portfolio's
// value on a sampled date is prices·w; the index is 100 * value / value[0]
// rounded half-to-even to IndexPrecision decimals.
//
// The returned dates are epoch milliseconds (nanoseconds / 1e6).
func Backtest(prices *PriceTable, frontier *Frontier) ([]float64, [][]float64, error) {
	if prices == nil || prices.Len() == 0 || prices.Width() == 0 {
		rows := 0
		if prices != nil {
			rows = prices.Len()
		}
		return nil, nil, &InsufficientDataError{Stage: "prices", Rows: rows, Required: 1}
	}
	if frontier == nil {
		return nil, nil, fmt.Errorf("no frontier to backtest")
	}

	sampled := sampleOldestFirst(prices.Len(), SampleInterval)
	n := prices.Width()

	dates := make([]float64, len(sampled))
	sampledDates := make([]time.Time, len(sampled))
	data := make([]float64, 0, len(sampled)*n)
	for k, row := range sampled {
		sampledDates[k] = prices.Date(row)
		dates[k] = scaleDate(prices.Date(row))
		for j := 0; j < n; j++ {
			data = append(data, prices.At(row, j))
		}
	}
	matrix := mat.NewDense(len(sampled), n, data)

	indexes := make([][]float64, frontier.Len())
	values := mat.NewVecDense(len(sampled), nil)
	for p, w := range frontier.Portfolios {
		if len(w) != n {
			return nil, nil, fmt.Errorf("portfolio %d has %d weights, expected %d", p, len(w), n)
		}
		values.MulVec(matrix, mat.NewVecDense(n, w))

		base := values.AtVec(0)
		if base == 0 {
			return nil, nil, &DivisionError{Portfolio: p, Date: sampledDates[0]}
		}

		series := make([]float64, len(sampled))
		for k := range series {
			series[k] = roundHalfEven(IndexBase*values.AtVec(k)/base, IndexPrecision)
		}
		indexes[p] = series
	}

	return dates, indexes, nil
}

// sampleOldestFirst returns the row indices of a newest-first table of
// length rows after reversing it and keeping every interval-th row.
func sampleOldestFirst(rows, interval int) []int {
	out := make([]int, 0, (rows+interval-1)/interval)
	for k := 0; k < rows; k += interval {
		out = append(out, rows-1-k)
	}
	return out
}

func scaleDate(t time.Time) float64 {
	return float64(t.UnixNano()) / dateScale
}

// roundHalfEven rounds like numpy.around.
func roundHalfEven(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}
