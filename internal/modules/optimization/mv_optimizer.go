package optimization

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"golang.org/x/sync/errgroup"
)

const (
	// FrontierPoints is the number of target return levels in a sweep.
	FrontierPoints = 100

	// budgetTolerance bounds |Σw - 1| for an accepted solution.
	budgetTolerance = 1e-9
	// sameMeanTolerance is the relative spread under which all assets are
	// considered to share one mean return.
	sameMeanTolerance = 1e-12
)

// MVOptimizer solves the unconstrained-sign mean-variance problems that make
// up the efficient frontier.
//
// Mathematical formulation:
//   - min_volatility: minimize w'Σw subject to Σw = 1
//   - efficient_return: minimize w'Σw subject to Σw = 1 and μ'w = target
//
// Both are equality-constrained quadratic programs and are solved exactly
// through their KKT systems.
type MVOptimizer struct {
	workers int
	points  int
}

// NewMVOptimizer creates a mean-variance optimizer that solves frontier levels
// on up to workers goroutines. workers <= 0 uses one per CPU.
func NewMVOptimizer(workers int) *MVOptimizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &MVOptimizer{
		workers: workers,
		points:  FrontierPoints,
	}
}

// SolveFrontier traces the efficient frontier with a default optimizer.
func SolveFrontier(ctx context.Context, mean []float64, cov mat.Symmetric) (*Frontier, error) {
	return NewMVOptimizer(0).Frontier(ctx, mean, cov)
}

// Frontier computes the minimum-variance portfolio, then solves one
// efficient_return problem per target level between max(μ'w_mv, 0) and max(μ).
// Any failing level fails the whole sweep.
func (mvo *MVOptimizer) Frontier(ctx context.Context, mean []float64, cov mat.Symmetric) (*Frontier, error) {
	if err := checkDims(mean, cov); err != nil {
		return nil, err
	}

	minVar, err := mvo.MinVolatility(cov)
	if err != nil {
		return nil, err
	}

	minRet := math.Max(minVar.Return(mean), 0)
	maxRet := floats.Max(mean)
	targets := linspace(minRet, maxRet, mvo.points)

	portfolios := make([]Portfolio, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mvo.workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := mvo.EfficientReturn(mean, cov, target)
			if err != nil {
				return &OptimizationError{Level: i, Target: target, Err: err}
			}
			portfolios[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Frontier{
		Targets:     targets,
		Portfolios:  portfolios,
		MinVariance: minVar,
		MinReturn:   minRet,
		MaxReturn:   maxRet,
	}, nil
}

// MinVolatility returns the global minimum-variance portfolio.
//
//	[2Σ 1] [w]   [0]
//	[1' 0] [λ] = [1]
func (mvo *MVOptimizer) MinVolatility(cov mat.Symmetric) (Portfolio, error) {
	n := cov.SymmetricDim()
	kkt := mat.NewDense(n+1, n+1, nil)
	fillCovarianceBlock(kkt, cov)
	for i := 0; i < n; i++ {
		kkt.Set(i, n, 1)
		kkt.Set(n, i, 1)
	}

	rhs := mat.NewVecDense(n+1, nil)
	rhs.SetVec(n, 1)

	w, err := solveKKT(kkt, rhs, n)
	if err != nil {
		return nil, &OptimizationError{Level: -1, Reason: "minimum variance", Err: err}
	}
	return w, nil
}

// EfficientReturn returns the minimum-variance portfolio whose expected return
// equals target.
//
//	[2Σ 1 μ] [w ]   [0     ]
//	[1' 0 0] [λ1] = [1     ]
//	[μ' 0 0] [λ2]   [target]
//
// When every asset has the same mean the two constraints coincide: the problem
// is the minimum-variance problem if target equals that mean and infeasible
// otherwise.
func (mvo *MVOptimizer) EfficientReturn(mean []float64, cov mat.Symmetric, target float64) (Portfolio, error) {
	if err := checkDims(mean, cov); err != nil {
		return nil, err
	}

	if common, ok := sharedMean(mean); ok {
		scale := math.Max(math.Abs(common), math.Abs(target))
		if math.Abs(target-common) > sameMeanTolerance*scale {
			return nil, fmt.Errorf("target return %.6g is infeasible: every asset returns %.6g", target, common)
		}
		return mvo.MinVolatility(cov)
	}

	n := len(mean)
	kkt := mat.NewDense(n+2, n+2, nil)
	fillCovarianceBlock(kkt, cov)
	for i := 0; i < n; i++ {
		kkt.Set(i, n, 1)
		kkt.Set(n, i, 1)
		kkt.Set(i, n+1, mean[i])
		kkt.Set(n+1, i, mean[i])
	}

	rhs := mat.NewVecDense(n+2, nil)
	rhs.SetVec(n, 1)
	rhs.SetVec(n+1, target)

	w, err := solveKKT(kkt, rhs, n)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// fillCovarianceBlock writes 2Σ into the top-left n x n block of kkt.
func fillCovarianceBlock(kkt *mat.Dense, cov mat.Symmetric) {
	n := cov.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, 2*cov.At(i, j))
		}
	}
}

// solveKKT solves the KKT system and returns the first n components as the
// portfolio. Singular systems and solutions that miss the budget constraint
// are rejected.
func solveKKT(kkt *mat.Dense, rhs *mat.VecDense, n int) (Portfolio, error) {
	var x mat.VecDense
	if err := x.SolveVec(kkt, rhs); err != nil {
		return nil, fmt.Errorf("KKT system is singular: %w", err)
	}

	w := make(Portfolio, n)
	for i := range w {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("KKT solution is not finite")
		}
		w[i] = v
	}

	if sum := w.Sum(); math.Abs(sum-1) > budgetTolerance {
		return nil, fmt.Errorf("weights sum to %.12g, system is ill-conditioned", sum)
	}
	return w, nil
}

// sharedMean reports whether all means are equal within tolerance.
func sharedMean(mean []float64) (float64, bool) {
	lo, hi := floats.Min(mean), floats.Max(mean)
	scale := math.Max(math.Abs(lo), math.Abs(hi))
	if hi-lo <= sameMeanTolerance*scale {
		return mean[0], true
	}
	return 0, false
}

func checkDims(mean []float64, cov mat.Symmetric) error {
	if len(mean) == 0 {
		return fmt.Errorf("no assets provided")
	}
	if n := cov.SymmetricDim(); n != len(mean) {
		return fmt.Errorf("covariance matrix size %d doesn't match mean vector length %d", n, len(mean))
	}
	return nil
}

// linspace returns num evenly spaced values over [start, stop], stop included.
func linspace(start, stop float64, num int) []float64 {
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(num-1)
	for i := range out {
		out[i] = float64(i)*step + start
	}
	out[num-1] = stop
	return out
}
