package optimization

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The table is newest first, so row t is the return from the older row t+1
// into the newer row t.
func TestEstimateReturns_ReverseConvention(t *testing.T) {
	table, err := NewPriceTable(
		[]time.Time{day(2), day(1), day(0)},
		[]string{"A"},
		[][]float64{{120}, {100}, {50}},
	)
	require.NoError(t, err)

	returns, mean, cov, err := EstimateReturns(table)
	require.NoError(t, err)

	require.Equal(t, 2, returns.Rows())
	assert.InDelta(t, 0.2, returns.Data.At(0, 0), 1e-15)
	assert.InDelta(t, 1.0, returns.Data.At(1, 0), 1e-15)
	assert.Equal(t, []time.Time{day(2), day(1)}, returns.Dates)

	assert.InDelta(t, 0.6, mean[0], 1e-15)
	// Sample variance of {0.2, 1.0} with N-1.
	assert.InDelta(t, 0.32, cov.At(0, 0), 1e-15)
}

func TestEstimateReturns_TwoByTen(t *testing.T) {
	table := tableFromOldest(t, []string{"A", "B"}, syntheticPrices(10, 2))

	returns, mean, cov, err := EstimateReturns(table)
	require.NoError(t, err)

	assert.Equal(t, 9, returns.Rows())
	assert.Equal(t, 0, returns.Dropped)
	assert.Len(t, mean, 2)
	assert.Equal(t, 2, cov.SymmetricDim())
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
	assert.Greater(t, cov.At(0, 0), 0.0)
}

func TestEstimateReturns_DropsNonFiniteRows(t *testing.T) {
	// Oldest first: the zero price makes the next return infinite and its own
	// return from zero to zero NaN.
	table := tableFromOldest(t, []string{"A", "B"}, [][]float64{
		{10, 20},
		{11, 0},
		{12, 0},
		{13, 22},
		{14, 23},
		{15, 24},
	})

	returns, _, _, err := EstimateReturns(table)
	require.NoError(t, err)

	assert.Equal(t, 2, returns.Dropped)
	assert.Equal(t, 3, returns.Rows())
	r, c := returns.Data.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
}

func TestEstimateReturns_InsufficientData(t *testing.T) {
	tests := []struct {
		name  string
		table func(t *testing.T) *PriceTable
		stage string
	}{
		{
			name: "single row",
			table: func(t *testing.T) *PriceTable {
				return tableFromOldest(t, []string{"A"}, [][]float64{{10}})
			},
			stage: "prices",
		},
		{
			name: "single return row",
			table: func(t *testing.T) *PriceTable {
				return tableFromOldest(t, []string{"A"}, [][]float64{{10}, {11}})
			},
			stage: "returns",
		},
		{
			name: "everything dropped",
			table: func(t *testing.T) *PriceTable {
				return tableFromOldest(t, []string{"A"}, [][]float64{{0}, {0}, {0}})
			},
			stage: "returns",
		},
		{
			name:  "nil table",
			table: func(t *testing.T) *PriceTable { return nil },
			stage: "prices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := EstimateReturns(tt.table(t))
			require.Error(t, err)

			var ide *InsufficientDataError
			require.True(t, errors.As(err, &ide))
			assert.Equal(t, tt.stage, ide.Stage)
		})
	}
}
