package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	specs := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// universe.db - assets and portfolio versions
		{"universe", database.ProfileStandard, &container.UniverseDB},
		// history.db - daily prices
		{"history", database.ProfileStandard, &container.HistoryDB},
		// cache.db - calculation results, safe to lose
		{"cache", database.ProfileCache, &container.CacheDB},
	}

	for _, spec := range specs {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, spec.name+".db"),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", spec.name, err)
		}
		*spec.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply %s schema: %w", spec.name, err)
		}
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("databases", len(container.Databases())).
		Msg("Databases initialized")

	return container, nil
}
