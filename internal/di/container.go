// Package di wires the application components with samber/do.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers. Services are built lazily on
// first invocation, so a command only opens the stores it uses.
func NewContainer(opts config.LoadOptions) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, opts)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideVectorStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Inference layer
	do.Provide(injector, providers.ProvideInferenceClient)
	do.Provide(injector, providers.ProvideEmbedder)

	// Domain services
	do.Provide(injector, providers.ProvideCategoryMapper)
	do.Provide(injector, providers.ProvideCategoryPredictor)
	do.Provide(injector, providers.ProvideEmotionAnalyzer)
	do.Provide(injector, providers.ProvideRecommender)
	do.Provide(injector, providers.ProvidePipeline)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)

	return injector
}
