//go:build wireinject
// +build wireinject

package di

import (
	"NextClose/internal/domain/repository"
	internalrepo "NextClose/internal/repository"
	"NextClose/internal/services/predictors"
	"NextClose/internal/usecase"
	"NextClose/pkg/config"
	"NextClose/pkg/metrics"
	"NextClose/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes infrastructure clients in reverse order of creation.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Raw table
		ProvideRawSource,
		ProvideRawTable,
		wire.Bind(new(repository.RawTable), new(*internalrepo.MemoryTable)),

		// Predictors
		ProvidePredictorRegistry,
		wire.Bind(new(usecase.PredictorSet), new(*predictors.Registry)),
		ProvidePredictionService,

		// Outputs
		ProvideKafkaProducer,
		ProvideKafkaPublisher,
		ProvidePublisher,
		ProvideBytesCache,
		ProvideSnapshotStore,

		// Use cases
		ProvideForecastUseCase,
		ProvideScheduler,

		// Application server
		ProvideForecastHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
