package optimization

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Pipeline runs the full computation for one request: return estimation,
// frontier sweep, annualization and backtest. It holds no per-request state
// and is safe for concurrent use.
type Pipeline struct {
	optimizer *MVOptimizer
	log       zerolog.Logger
}

// NewPipeline creates a pipeline around the given optimizer.
func NewPipeline(optimizer *MVOptimizer, log zerolog.Logger) *Pipeline {
	if optimizer == nil {
		optimizer = NewMVOptimizer(0)
	}
	return &Pipeline{
		optimizer: optimizer,
		log:       log.With().Str("component", "frontier_pipeline").Logger(),
	}
}

// Run computes the frontier, its annualized statistics and its backtest
// indexes for tickers over prices. Columns are taken in the order of tickers.
// An empty ticker list yields an empty Result and no error.
func (p *Pipeline) Run(ctx context.Context, tickers []string, prices *PriceTable) (*Result, error) {
	if len(tickers) == 0 {
		return &Result{}, nil
	}
	if prices == nil {
		return nil, &InsufficientDataError{Stage: "prices", Rows: 0, Required: MinPriceRows}
	}

	table, err := prices.Select(tickers)
	if err != nil {
		return nil, fmt.Errorf("failed to align prices: %w", err)
	}

	returns, mean, cov, err := EstimateReturns(table)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate returns: %w", err)
	}

	p.log.Debug().
		Int("price_rows", table.Len()).
		Int("return_rows", returns.Rows()).
		Int("dropped_rows", returns.Dropped).
		Msg("Estimated return statistics")

	frontier, err := p.optimizer.Frontier(ctx, mean, cov)
	if err != nil {
		return nil, fmt.Errorf("failed to solve frontier: %w", err)
	}

	annReturns, annVols, err := Annualize(frontier, mean, cov)
	if err != nil {
		return nil, fmt.Errorf("failed to annualize frontier: %w", err)
	}

	dates, indexes, err := Backtest(table, frontier)
	if err != nil {
		return nil, fmt.Errorf("failed to backtest frontier: %w", err)
	}

	return &Result{
		Tickers:              table.Tickers(),
		Frontier:             frontier,
		AnnualizedReturns:    annReturns,
		AnnualizedVolatility: annVols,
		Dates:                dates,
		Indexes:              indexes,
		ReturnRows:           returns.Rows(),
		DroppedRows:          returns.Dropped,
	}, nil
}
