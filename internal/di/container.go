// Package di provides dependency injection configuration for the
// Shelfmark batch tools.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage
	do.Provide(injector, providers.ProvideStore)

	// Batch services
	do.Provide(injector, providers.ProvideIndexBuilder)
	do.Provide(injector, providers.ProvideMergeService)

	return injector
}

// Shutdown gracefully shuts down all services in reverse initialization
// order.
func Shutdown(injector *do.RootScope) error {
	return injector.Shutdown()
}
