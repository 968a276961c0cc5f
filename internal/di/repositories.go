package di

import (
	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/modules/calculations"
	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the data access layer and clients
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.AssetRepo = universe.NewAssetRepository(container.UniverseDB.Conn(), log)
	container.HistoryDBClient = universe.NewHistoryDB(container.HistoryDB.Conn(), log)
	container.CalculationCache = calculations.NewCache(container.CacheDB.Conn(), log)
	container.YahooClient = yahoo.NewClient(log)
}
