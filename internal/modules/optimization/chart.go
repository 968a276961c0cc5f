package optimization

import (
	"context"
	"errors"
	"fmt"
	"time"

	charts "github.com/vicanso/go-charts/v2"
)

const (
	chartWidth  = 900
	chartHeight = 500
)

// ErrEmptyPortfolio is returned when a chart is requested for a portfolio
// version without assets.
var ErrEmptyPortfolio = errors.New("portfolio version has no assets")

// RenderChart draws the backtest indexes of the lowest-return, median and
// highest-return frontier portfolios as a PNG.
func (s *OptimizerService) RenderChart(ctx context.Context, req Request) ([]byte, error) {
	resp, err := s.Optimize(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Empty() {
		return nil, ErrEmptyPortfolio
	}
	return RenderIndexChart(resp)
}

// RenderIndexChart renders the chart for an already computed response.
func RenderIndexChart(resp *Response) ([]byte, error) {
	if resp.Empty() || len(resp.PortfolioIndexes) == 0 {
		return nil, ErrEmptyPortfolio
	}

	picks := chartLevels(len(resp.PortfolioIndexes))
	values := make([][]float64, 0, len(picks))
	names := make([]string, 0, len(picks))
	for _, level := range picks {
		values = append(values, resp.PortfolioIndexes[level])
		names = append(names, levelName(resp, level))
	}

	labels := make([]string, len(resp.Dates))
	for i, ms := range resp.Dates {
		labels[i] = time.UnixMilli(int64(ms)).UTC().Format("Jan 06")
	}

	splitNum := 6
	if len(labels) <= 30 {
		splitNum = len(labels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc("Efficient frontier backtest", "index, base 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionBottom,
		}),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// chartLevels picks the first, middle and last frontier level, deduplicated.
func chartLevels(n int) []int {
	levels := []int{0}
	if mid := n / 2; mid > 0 && mid < n-1 {
		levels = append(levels, mid)
	}
	if n > 1 {
		levels = append(levels, n-1)
	}
	return levels
}

func levelName(resp *Response, level int) string {
	if level < len(resp.AnnualizedExpectedReturns) && level < len(resp.AnnualizedExpectedVolatility) {
		return fmt.Sprintf("#%d ret %.1f%% vol %.1f%%", level+1,
			resp.AnnualizedExpectedReturns[level]*100,
			resp.AnnualizedExpectedVolatility[level]*100)
	}
	return fmt.Sprintf("#%d", level+1)
}
