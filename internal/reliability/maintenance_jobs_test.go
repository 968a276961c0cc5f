package reliability

import (
	"testing"

	"github.com/aristath/frontier/internal/database"
	testingpkg "github.com/aristath/frontier/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyMaintenanceJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "cache")
	defer cleanup()

	dir := t.TempDir()
	job := NewDailyMaintenanceJob([]*database.DB{db}, dir, zerolog.Nop())
	assert.Equal(t, "daily_maintenance", job.Name())

	job.diskUsage = func(path string) (*disk.UsageStat, error) {
		assert.Equal(t, dir, path)
		return &disk.UsageStat{Free: 20 << 30}, nil
	}
	require.NoError(t, job.Run())

	job.diskUsage = func(string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Free: 100 << 20}, nil
	}
	assert.ErrorContains(t, job.Run(), "GB free")
}

func TestWeeklyMaintenanceJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "history")
	defer cleanup()
	testingpkg.SeedDailyPrices(t, db.Conn(), testingpkg.NewPriceFixtures(50, "AAA", "BBB"))
	_, err := db.Conn().Exec("DELETE FROM daily_prices WHERE ticker = 'BBB'")
	require.NoError(t, err)

	job := NewWeeklyMaintenanceJob([]*database.DB{db}, zerolog.Nop())
	assert.Equal(t, "weekly_maintenance", job.Name())
	require.NoError(t, job.Run())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.FreelistCount)
}
