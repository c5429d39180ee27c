//go:build wireinject
// +build wireinject

package di

import (
	"MomentumPulse/pkg/config"
	"MomentumPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCacheService,

		// Market data
		ProvideHub,
		ProvideMarketSource,
		ProvideShardFactory,
		ProvideCollector,

		// Signal pipeline
		ProvideResultCache,
		ProvideSignalStore,
		ProvideSignalPublisher,
		ProvideGenerator,
		ProvideTrendAverager,
		ProvideDetector,

		// Alerts
		ProvideNotifier,
		ProvideDispatcher,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
