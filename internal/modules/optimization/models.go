package optimization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PriceTable is a rectangular date x ticker matrix of closing prices.
//
// Rows are ordered newest first (strictly decreasing dates), which is the
// order the history store and the market-data provider hand them out. The
// return estimator and the backtester both depend on this ordering.
type PriceTable struct {
	dates   []time.Time
	tickers []string
	rows    [][]float64
}

// NewPriceTable validates and builds a price table. The slices are copied.
func NewPriceTable(dates []time.Time, tickers []string, rows [][]float64) (*PriceTable, error) {
	if len(dates) != len(rows) {
		return nil, fmt.Errorf("price table has %d dates but %d rows", len(dates), len(rows))
	}

	seen := make(map[string]struct{}, len(tickers))
	for _, ticker := range tickers {
		if ticker == "" {
			return nil, fmt.Errorf("price table has an empty ticker")
		}
		if _, dup := seen[ticker]; dup {
			return nil, fmt.Errorf("price table has duplicate ticker %s", ticker)
		}
		seen[ticker] = struct{}{}
	}

	t := &PriceTable{
		dates:   make([]time.Time, len(dates)),
		tickers: append([]string(nil), tickers...),
		rows:    make([][]float64, len(rows)),
	}
	copy(t.dates, dates)

	for i, row := range rows {
		if len(row) != len(tickers) {
			return nil, fmt.Errorf("price row %d has %d values, expected %d", i, len(row), len(tickers))
		}
		for j, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("price for %s on %s is not finite", tickers[j], dates[i].Format("2006-01-02"))
			}
		}
		if i > 0 && !dates[i].Before(dates[i-1]) {
			return nil, fmt.Errorf("price dates must be strictly decreasing: %s follows %s",
				dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
		t.rows[i] = append([]float64(nil), row...)
	}

	return t, nil
}

// Len returns the number of dates.
func (t *PriceTable) Len() int { return len(t.rows) }

// Width returns the number of tickers.
func (t *PriceTable) Width() int { return len(t.tickers) }

// Tickers returns the column order. Callers must not modify it.
func (t *PriceTable) Tickers() []string { return t.tickers }

// Date returns the date of row i.
func (t *PriceTable) Date(i int) time.Time { return t.dates[i] }

// At returns the price of ticker column j on row i.
func (t *PriceTable) At(i, j int) float64 { return t.rows[i][j] }

// Select returns a table restricted to tickers, in the given order.
func (t *PriceTable) Select(tickers []string) (*PriceTable, error) {
	index := make(map[string]int, len(t.tickers))
	for j, ticker := range t.tickers {
		index[ticker] = j
	}

	cols := make([]int, len(tickers))
	for k, ticker := range tickers {
		j, ok := index[ticker]
		if !ok {
			return nil, fmt.Errorf("%w: no prices for ticker %s", ErrUnknownTicker, ticker)
		}
		cols[k] = j
	}

	rows := make([][]float64, len(t.rows))
	for i, row := range t.rows {
		out := make([]float64, len(cols))
		for k, j := range cols {
			out[k] = row[j]
		}
		rows[i] = out
	}

	return NewPriceTable(t.dates, tickers, rows)
}

// JoinCloses builds a newest-first table from per-ticker closes keyed by Unix
// second. Only the dates on which every ticker has a close are kept; columns
// follow the order of tickers.
func JoinCloses(tickers []string, closes map[string]map[int64]float64) (*PriceTable, error) {
	var dates []int64
	if len(tickers) > 0 {
		for ts := range closes[tickers[0]] {
			shared := true
			for _, ticker := range tickers[1:] {
				if _, ok := closes[ticker][ts]; !ok {
					shared = false
					break
				}
			}
			if shared {
				dates = append(dates, ts)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] > dates[j] })

	times := make([]time.Time, len(dates))
	rows := make([][]float64, len(dates))
	for i, ts := range dates {
		times[i] = time.Unix(ts, 0).UTC()
		row := make([]float64, len(tickers))
		for j, ticker := range tickers {
			row[j] = closes[ticker][ts]
		}
		rows[i] = row
	}

	return NewPriceTable(times, tickers, rows)
}

// ReturnMatrix holds the cleaned period returns of a price table.
// Every cell is finite.
type ReturnMatrix struct {
	// Dates holds, per retained row, the date of the newer observation.
	Dates   []time.Time
	Tickers []string
	Data    *mat.Dense
	// Dropped counts the rows discarded because a value was not finite.
	Dropped int
}

// Rows returns the number of retained return rows.
func (r *ReturnMatrix) Rows() int {
	return len(r.Dates)
}

// Portfolio is a weight vector aligned with the ticker order of the return
// matrix. Weights may be negative.
type Portfolio []float64

// Sum returns the sum of the weights.
func (p Portfolio) Sum() float64 {
	return floats.Sum(p)
}

// Return returns the expected per-period return w·μ.
func (p Portfolio) Return(mean []float64) float64 {
	return floats.Dot(p, mean)
}

// Variance returns the raw quadratic form wᵀΣw.
func (p Portfolio) Variance(cov mat.Symmetric) float64 {
	w := mat.NewVecDense(len(p), p)
	return mat.Inner(w, cov, w)
}

// Frontier is the ordered efficient frontier sweep.
type Frontier struct {
	// Targets[i] is the target return Portfolios[i] was solved for.
	Targets     []float64
	Portfolios  []Portfolio
	MinVariance Portfolio
	MinReturn   float64
	MaxReturn   float64
}

// Len returns the number of frontier portfolios.
func (f *Frontier) Len() int {
	return len(f.Portfolios)
}

// Result is everything one optimisation run produces.
type Result struct {
	Tickers              []string
	Frontier             *Frontier
	AnnualizedReturns    []float64
	AnnualizedVolatility []float64
	// Dates are the sampled backtest dates in epoch milliseconds.
	Dates   []float64
	Indexes [][]float64

	ReturnRows  int
	DroppedRows int
}

// Empty reports whether the run had no assets to optimise.
func (r *Result) Empty() bool {
	return r == nil || len(r.Tickers) == 0
}
