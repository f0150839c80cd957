//go:build wireinject
// +build wireinject

package di

import (
	"PumpScan/pkg/config"
	"PumpScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup function closes infrastructure clients in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideCache,

		// Repositories
		ProvideReportCache,
		ProvideHistoryStore,
		ProvideSink,

		// Sources and analysis
		ProvideFetchers,
		ProvideCollector,
		ProvideRules,
		ProvidePipeline,
		ProvideAnalyst,
		ProvideAnalysisUseCase,

		// Use cases
		ProvideReportRecorder,
		ProvideHub,
		ProvideScanUseCase,
		ProvideQueue,
		ProvideMonitor,
		ProvideKafkaConsumer,
		ProvideReportsHandler,

		// Transport
		ProvideLimiter,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
