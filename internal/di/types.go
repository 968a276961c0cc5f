// Package di provides dependency injection wiring and initialization.
package di

import (
	"errors"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/calculations"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/aristath/frontier/internal/reliability"
	"github.com/aristath/frontier/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// Architecture:
//   - Databases: universe (assets, portfolio versions), history (daily prices),
//     cache (calculation results)
//   - Clients: Yahoo chart API
//   - Repositories: assets, price history, calculation cache
//   - Services: frontier optimisation, historical sync, backups
type Container struct {
	// Databases
	UniverseDB *database.DB
	HistoryDB  *database.DB
	CacheDB    *database.DB

	// Clients
	YahooClient *yahoo.Client

	// Repositories
	AssetRepo        *universe.AssetRepository
	HistoryDBClient  *universe.HistoryDB
	CalculationCache *calculations.Cache

	// Services
	PriceReader           optimization.PriceReader
	OptimizerService      *optimization.OptimizerService
	HistoricalSyncService *universe.HistoricalSyncService
	BackupService         *reliability.BackupService // nil when object storage is not configured

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	SyncHistoricalPrices  scheduler.Job
	PurgeCalculationCache scheduler.Job
	DailyMaintenance      scheduler.Job
	WeeklyMaintenance     scheduler.Job
	BackupDatabases       scheduler.Job // nil when backups are disabled
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	out := make([]*database.DB, 0, 3)
	for _, db := range []*database.DB{c.UniverseDB, c.HistoryDB, c.CacheDB} {
		if db != nil {
			out = append(out, db)
		}
	}
	return out
}

// Close closes every open database
func (c *Container) Close() error {
	var errs []error
	for _, db := range c.Databases() {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
