//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinSight/pkg/config"
	"FinSight/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideStorage,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories and services
		ProvidePublisher,
		ProvideParser,
		ProvideAnalyzers,
		ProvideRateLimiter,

		// Use cases and intake handlers
		ProvideFilingIngest,
		ProvideSentimentReport,
		ProvideHandlers,

		// Ops server and application
		ProvideHealth,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
