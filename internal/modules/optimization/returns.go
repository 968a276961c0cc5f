package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinPriceRows is the minimum number of price rows needed to form a return.
	MinPriceRows = 2
	// MinReturnRows is the minimum number of clean return rows needed for a
	// sample covariance.
	MinReturnRows = 2
)

// EstimateReturns turns a newest-first price table into a cleaned return
// matrix, the per-ticker mean return and the sample covariance matrix.
//
// Row t of the return matrix is (p[t] - p[t+1]) / p[t+1]: the return from the
// older observation t+1 to the newer observation t. Rows containing any
// non-finite value (a zero denominator) are dropped entirely.
func EstimateReturns(prices *PriceTable) (*ReturnMatrix, []float64, *mat.SymDense, error) {
	if prices == nil || prices.Len() < MinPriceRows || prices.Width() == 0 {
		rows := 0
		if prices != nil {
			rows = prices.Len()
		}
		return nil, nil, nil, &InsufficientDataError{Stage: "prices", Rows: rows, Required: MinPriceRows}
	}

	n := prices.Width()
	returns := &ReturnMatrix{Tickers: prices.Tickers()}

	data := make([]float64, 0, (prices.Len()-1)*n)
	row := make([]float64, n)
	for t := 0; t < prices.Len()-1; t++ {
		clean := true
		for j := 0; j < n; j++ {
			older := prices.At(t+1, j)
			r := (prices.At(t, j) - older) / older
			if math.IsInf(r, 0) || math.IsNaN(r) {
				clean = false
				break
			}
			row[j] = r
		}
		if !clean {
			returns.Dropped++
			continue
		}
		data = append(data, row...)
		returns.Dates = append(returns.Dates, prices.Date(t))
	}

	if returns.Rows() < MinReturnRows {
		return nil, nil, nil, &InsufficientDataError{Stage: "returns", Rows: returns.Rows(), Required: MinReturnRows}
	}
	returns.Data = mat.NewDense(returns.Rows(), n, data)

	mean := make([]float64, n)
	col := make([]float64, returns.Rows())
	for j := range mean {
		mat.Col(col, j, returns.Data)
		mean[j] = stat.Mean(col, nil)
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, returns.Data, nil)

	return returns, mean, cov, nil
}
