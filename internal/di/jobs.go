package di

import (
	"fmt"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/reliability"
	"github.com/aristath/frontier/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	purgeCacheSchedule        = "0 15 * * * *"  // hourly at :15
	dailyMaintenanceSchedule  = "0 0 2 * * *"   // 02:00 daily
	weeklyMaintenanceSchedule = "0 0 4 * * SUN" // 04:00 Sunday
)

// RegisterJobs creates the scheduler and registers all jobs.
// Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	container.Scheduler = sched

	instances := &JobInstances{
		SyncHistoricalPrices:  scheduler.NewSyncHistoricalPricesJob(container.HistoricalSyncService, log),
		PurgeCalculationCache: scheduler.NewPurgeCalculationCacheJob(container.CalculationCache, log),
		DailyMaintenance:      reliability.NewDailyMaintenanceJob(container.Databases(), cfg.DataDir, log),
		WeeklyMaintenance:     reliability.NewWeeklyMaintenanceJob(container.Databases(), log),
	}
	if container.BackupService != nil {
		instances.BackupDatabases = scheduler.NewBackupDatabasesJob(container.BackupService, log)
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.SyncSchedule, instances.SyncHistoricalPrices},
		{purgeCacheSchedule, instances.PurgeCalculationCache},
		{dailyMaintenanceSchedule, instances.DailyMaintenance},
		{weeklyMaintenanceSchedule, instances.WeeklyMaintenance},
		{cfg.BackupSchedule, instances.BackupDatabases},
	}

	for _, reg := range registrations {
		// Empty schedule or missing job means the job only runs on demand
		if reg.schedule == "" || reg.job == nil {
			continue
		}
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register job: %w", err)
		}
	}

	log.Info().Int("jobs", sched.Entries()).Msg("Jobs registered")

	return instances, nil
}
