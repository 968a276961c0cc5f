package optimization

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightMatrix_MarshalJSON(t *testing.T) {
	m := WeightMatrix{
		{0.5, 0.5},
		{1.23456789012345, -0.23456789012345},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"[[0.5,0.5],[1.2345678901,-0.2345678901]]"`, string(data))
}

func TestWeightMatrix_UnmarshalJSON(t *testing.T) {
	var fromString WeightMatrix
	require.NoError(t, json.Unmarshal([]byte(`"[[0.25,0.75]]"`), &fromString))
	assert.Equal(t, WeightMatrix{{0.25, 0.75}}, fromString)

	var fromArray WeightMatrix
	require.NoError(t, json.Unmarshal([]byte(`[[1,0],[0,1]]`), &fromArray))
	assert.Equal(t, WeightMatrix{{1, 0}, {0, 1}}, fromArray)

	var bad WeightMatrix
	assert.Error(t, json.Unmarshal([]byte(`"not weights"`), &bad))
}

func TestResponse_JSONFieldNames(t *testing.T) {
	resp := &Response{
		Assets:                       []string{"A", "B"},
		Portfolios:                   WeightMatrix{{0.4, 0.6}},
		AnnualizedExpectedReturns:    []float64{0.1},
		AnnualizedExpectedVolatility: []float64{0.2},
		Dates:                        []float64{1704067200000},
		PortfolioIndexes:             [][]float64{{100}},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"assets",
		"portfolios",
		"annualizedExpectedReturns",
		"annualizedExpectedVolatility",
		"dates",
		"portfolio_indexes",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, `"[[0.4,0.6]]"`, string(raw["portfolios"]))

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *resp, decoded)
}

func TestResponse_EmptyEncodesAsObject(t *testing.T) {
	data, err := json.Marshal(NewResponse(&Result{}))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}
