package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/aristath/frontier/internal/reliability"
	"github.com/rs/zerolog"
)

const (
	syncTimeout   = 30 * time.Minute
	backupTimeout = 30 * time.Minute
)

// HistoricalSyncer pulls provider prices for every known ticker
type HistoricalSyncer interface {
	SyncAll(ctx context.Context) (*universe.SyncReport, error)
}

// CachePurger removes expired calculation results
type CachePurger interface {
	DeleteExpired() (int64, error)
}

// Backuper snapshots and uploads the databases
type Backuper interface {
	CreateAndUploadBackup(ctx context.Context) (*reliability.BackupInfo, error)
	RotateOldBackups(ctx context.Context) error
}

// SyncHistoricalPricesJob runs the provider price sync
type SyncHistoricalPricesJob struct {
	syncer HistoricalSyncer
	log    zerolog.Logger
}

// NewSyncHistoricalPricesJob creates a new SyncHistoricalPricesJob
func NewSyncHistoricalPricesJob(syncer HistoricalSyncer, log zerolog.Logger) *SyncHistoricalPricesJob {
	return &SyncHistoricalPricesJob{
		syncer: syncer,
		log:    log.With().Str("job", "sync_historical_prices").Logger(),
	}
}

// Name returns the job name
func (j *SyncHistoricalPricesJob) Name() string {
	return "sync_historical_prices"
}

// Run executes the sync. Individual ticker failures are logged by the
// syncer and do not fail the job.
func (j *SyncHistoricalPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	report, err := j.syncer.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("historical sync failed: %w", err)
	}
	if len(report.Failed) > 0 {
		j.log.Warn().
			Int("failed", len(report.Failed)).
			Int("tickers", report.Tickers).
			Msg("Some tickers failed to sync")
	}
	return nil
}

// PurgeCalculationCacheJob deletes expired cache entries
type PurgeCalculationCacheJob struct {
	cache CachePurger
	log   zerolog.Logger
}

// NewPurgeCalculationCacheJob creates a new PurgeCalculationCacheJob
func NewPurgeCalculationCacheJob(cache CachePurger, log zerolog.Logger) *PurgeCalculationCacheJob {
	return &PurgeCalculationCacheJob{
		cache: cache,
		log:   log.With().Str("job", "purge_calculation_cache").Logger(),
	}
}

// Name returns the job name
func (j *PurgeCalculationCacheJob) Name() string {
	return "purge_calculation_cache"
}

// Run executes the purge
func (j *PurgeCalculationCacheJob) Run() error {
	deleted, err := j.cache.DeleteExpired()
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired cache entries")
	}
	return nil
}

// BackupDatabasesJob uploads a backup and rotates old ones
type BackupDatabasesJob struct {
	backups Backuper
	log     zerolog.Logger
}

// NewBackupDatabasesJob creates a new BackupDatabasesJob
func NewBackupDatabasesJob(backups Backuper, log zerolog.Logger) *BackupDatabasesJob {
	return &BackupDatabasesJob{
		backups: backups,
		log:     log.With().Str("job", "backup_databases").Logger(),
	}
}

// Name returns the job name
func (j *BackupDatabasesJob) Name() string {
	return "backup_databases"
}

// Run executes the backup. A failed rotation is logged, the backup itself
// already succeeded.
func (j *BackupDatabasesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if _, err := j.backups.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	if err := j.backups.RotateOldBackups(ctx); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}
