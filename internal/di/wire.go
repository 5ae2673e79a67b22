//go:build wireinject
// +build wireinject

package di

import (
	"github.com/timur-ship-it/marketdata-dashboard/pkg/config"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Upstream adapters and storage
		ProvideSources,
		ProvideCacheService,
		ProvideFetchCache,
		ProvidePortfolioStore,

		// Use cases
		ProvideDashboard,

		// HTTP surface
		ProvideDashboardHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
