package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	// criticalFreeBytes halts maintenance: the next sync would not fit.
	criticalFreeBytes = 500 << 20
	// lowFreeBytes logs a warning.
	lowFreeBytes = 5 << 30

	maintenanceTimeout = 10 * time.Minute
)

// DailyMaintenanceJob checks integrity, truncates WAL files and verifies free
// disk space for every database.
type DailyMaintenanceJob struct {
	databases []*database.DB
	dataDir   string
	diskUsage func(path string) (*disk.UsageStat, error)
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(databases []*database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		diskUsage: disk.Usage,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			return fmt.Errorf("database %s failed integrity check: %w", db.Name(), err)
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical, the next checkpoint catches up
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")

	return nil
}

// checkDiskSpace verifies sufficient disk space is available
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	usage, err := j.diskUsage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	switch {
	case usage.Free < criticalFreeBytes:
		j.log.Error().Float64("available_gb", availableGB).Msg("Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	case usage.Free < lowFreeBytes:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}

	return nil
}

// WeeklyMaintenanceJob compacts databases with VACUUM
type WeeklyMaintenanceJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWeeklyMaintenanceJob creates a new weekly maintenance job
func NewWeeklyMaintenanceJob(databases []*database.DB, log zerolog.Logger) *WeeklyMaintenanceJob {
	return &WeeklyMaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "weekly_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *WeeklyMaintenanceJob) Name() string {
	return "weekly_maintenance"
}

// Run executes the weekly maintenance job
func (j *WeeklyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting weekly maintenance")
	startTime := time.Now()

	for _, db := range j.databases {
		if err := j.vacuumDatabase(db); err != nil {
			// Continue with other databases
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
		}
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Weekly maintenance completed successfully")

	return nil
}

func (j *WeeklyMaintenanceJob) vacuumDatabase(db *database.DB) error {
	before, err := db.GetStats()
	if err != nil {
		return err
	}

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	after, err := db.GetStats()
	if err != nil {
		return err
	}

	sizeBefore := float64(before.PageCount*before.PageSize) / 1024 / 1024
	sizeAfter := float64(after.PageCount*after.PageSize) / 1024 / 1024
	j.log.Info().
		Str("database", db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}
