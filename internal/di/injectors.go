//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"arxivmon/internal"
	"arxivmon/internal/arxiv"
	"arxivmon/internal/controllers"
	"arxivmon/internal/monitor"
	"arxivmon/internal/providers"
	"arxivmon/internal/services"
	"arxivmon/internal/storage"
	"arxivmon/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewSnapshotCodec,
		storage.NewDataStorage,
		storage.NewPaperCounter,
		arxiv.NewClient,
		services.NewMonitorService,
		monitor.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
