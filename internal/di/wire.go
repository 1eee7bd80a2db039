//go:build wireinject
// +build wireinject

package di

import (
	"SkyIndex/pkg/config"
	"SkyIndex/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideArchive,
		ProvideSnapshotPublisher,
		ProvideHistory,

		// Market data and sentiment inputs
		ProvideLiveBook,
		ProvideSampleSource,
		ProvideHeadlineIngestor,
		ProvideAnalyzer,

		// Use cases
		ProvideAggregationEngine,
		ProvideCalculator,
		ProvideScheduler,
		ProvideQueries,
		ProvideRecalcQueue,

		// HTTP surface
		ProvideIndexHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
