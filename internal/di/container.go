// Package di wires the application together using samber/do.
package di

import (
	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/di/providers"
)

// NewContainer builds the dependency injection container with every
// application component registered. Nothing is constructed until invoked.
func NewContainer() do.Injector {
	injector := do.New()

	// Foundation
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Auth
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// External chapter catalog
	do.Provide(injector, providers.ProvideCatalogClient)

	// Services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideSourceService)
	do.Provide(injector, providers.ProvideDraftService)
	do.Provide(injector, providers.ProvideSearchService)

	// Background workers
	do.Provide(injector, providers.ProvideIngestWatcher)

	// Transport
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap eagerly constructs the long-running components so the process
// fails fast on misconfiguration instead of at first request.
func Bootstrap(injector do.Injector) error {
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.IngestWatcherHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.MDNSHandle](injector); err != nil {
		return err
	}
	return nil
}
