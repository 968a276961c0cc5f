package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateToUnix(t *testing.T) {
	ts, err := DateToUnix("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, int64(1704153600), ts)
	assert.Equal(t, "2024-01-02", UnixToDate(ts))

	_, err = DateToUnix("2024/01/02")
	assert.Error(t, err)
}

func TestTruncateToDay(t *testing.T) {
	in := time.Date(2024, 3, 5, 17, 45, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), TruncateToDay(in))
}
