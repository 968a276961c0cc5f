package di

import (
	"context"
	"fmt"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/aristath/frontier/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates the business logic layer
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.PriceSource {
	case config.PriceSourceYahoo:
		container.PriceReader = container.YahooClient
	default:
		container.PriceReader = container.HistoryDBClient
	}

	container.OptimizerService = optimization.NewOptimizerService(
		container.AssetRepo,
		container.PriceReader,
		optimization.NewMVOptimizer(cfg.Workers),
		log,
	)
	container.OptimizerService.SetCache(container.CalculationCache, cfg.CacheTTL)

	container.HistoricalSyncService = universe.NewHistoricalSyncService(
		&yahooFetcher{client: container.YahooClient},
		container.AssetRepo,
		container.HistoryDBClient,
		nil,
		universe.SyncOptions{LookbackDays: cfg.SyncLookbackDays},
		log,
	)
	// Cached frontiers are stale once new prices land
	container.HistoricalSyncService.OnSynced(container.OptimizerService.Invalidate)

	if cfg.S3.Enabled() {
		store, err := reliability.NewS3Client(ctx, cfg.S3.ToS3Config(), log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			container.Databases(),
			store,
			cfg.DataDir,
			cfg.BackupRetentionDays,
			log,
		)
	}

	log.Info().
		Str("price_source", cfg.PriceSource).
		Bool("backups", container.BackupService != nil).
		Msg("Services initialized")

	return nil
}
