package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TradingDaysPerYear scales per-period statistics to a yearly basis.
const TradingDaysPerYear = 252

// Annualize returns the annualized expected return and volatility of every
// frontier portfolio:
//
//	return     = μ'w * 252
//	volatility = sqrt(w'Σw * 252)
//
// The quadratic form is used raw. A negative value means the covariance matrix
// is numerically broken and is reported as an OptimizationError.
func Annualize(frontier *Frontier, mean []float64, cov mat.Symmetric) ([]float64, []float64, error) {
	if frontier == nil {
		return nil, nil, fmt.Errorf("no frontier to annualize")
	}
	if err := checkDims(mean, cov); err != nil {
		return nil, nil, err
	}

	returns := make([]float64, frontier.Len())
	vols := make([]float64, frontier.Len())
	for i, w := range frontier.Portfolios {
		if len(w) != len(mean) {
			return nil, nil, fmt.Errorf("portfolio %d has %d weights, expected %d", i, len(w), len(mean))
		}

		returns[i] = w.Return(mean) * TradingDaysPerYear

		variance := w.Variance(cov)
		if variance < 0 || math.IsNaN(variance) {
			oe := &OptimizationError{
				Level:  i,
				Reason: fmt.Sprintf("negative portfolio variance %.6g", variance),
			}
			if i < len(frontier.Targets) {
				oe.Target = frontier.Targets[i]
			}
			return nil, nil, oe
		}
		vols[i] = math.Sqrt(variance * TradingDaysPerYear)
	}

	return returns, vols, nil
}
