//go:build wireinject
// +build wireinject

package di

import (
	"StratForge/pkg/config"
	"StratForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideCandleStore,
		ProvideFeatureSink,
		ProvideFeaturePublisher,
		ProvideManifestStore,

		// Strategy engine
		ProvideIndicatorRegistry,
		ProvideIndicatorEvaluator,
		ProvideFuzzyCatalog,
		ProvideFuzzyEvaluator,
		ProvideValidator,
		ProvideLoader,
		ProvideEnforcer,

		// Use cases
		ProvideTrainingRunner,
		ProvideBacktestRunner,
		ProvideKafkaCandlesHandler,
		ProvideStrategiesUseCase,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
