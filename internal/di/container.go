// Package di provides dependency injection configuration for the add-on.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/di/providers"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideSourceLimiter)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Sources
	do.Provide(injector, providers.ProvideLibriVoxClient)
	do.Provide(injector, providers.ProvideOpenLibraryClient)
	do.Provide(injector, providers.ProvideFeedClient)
	do.Provide(injector, providers.ProvideScraperClient)

	// Business services
	do.Provide(injector, providers.ProvideCoverResolver)
	do.Provide(injector, providers.ProvideIDMinter)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideStreamService)
	do.Provide(injector, providers.ProvideSearchService)

	// Server
	do.Provide(injector, providers.ProvideRelay)
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	providers.RebuildSearchIndexIfNeeded(injector)

	if _, err := do.Invoke[*service.StreamService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
