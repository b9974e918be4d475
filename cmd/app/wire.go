//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/gaptime-companion/internal/bootstrap"
	"github.com/yanqian/gaptime-companion/internal/domain/auth"
	"github.com/yanqian/gaptime-companion/internal/domain/companion"
	"github.com/yanqian/gaptime-companion/internal/domain/location"
	"github.com/yanqian/gaptime-companion/internal/domain/suntimes"
	"github.com/yanqian/gaptime-companion/internal/infra/config"
	"github.com/yanqian/gaptime-companion/internal/infra/solar"
	httpiface "github.com/yanqian/gaptime-companion/internal/interface/http"
	"github.com/yanqian/gaptime-companion/pkg/logger"
	"github.com/yanqian/gaptime-companion/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideCompanionConfig,
		provideLocationOptions,
		provideAuthConfig,
		provideLocationStore,
		provideLocationProvider,
		provideTranslator,
		provideDeliveryMetrics,
		metrics.NewRegistry,
		provideDeviceChannel,
		provideSender,
		provideURLOpener,
		provideEventSource,
		location.NewAcquirer,
		solar.NewCalculator,
		companion.NewService,
		auth.NewService,
		wire.Bind(new(companion.PositionAcquirer), new(*location.Acquirer)),
		wire.Bind(new(suntimes.Calculator), new(*solar.Calculator)),
		httpiface.NewEventHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
