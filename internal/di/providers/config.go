// Package providers contains dependency injection providers for the recommender.
package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	opts := do.MustInvoke[config.LoadOptions](i)
	return config.Load(opts)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.Logger.Level == "debug",
		Environment: cfg.App.Environment,
	})

	log.Debug("Configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.Data.Dir,
		"retrieval_mode", cfg.Retrieval.Mode,
		"embedding_provider", cfg.Embedding.Provider,
	)

	return log, nil
}

// ProvideMetrics provides the Prometheus metrics manager.
func ProvideMetrics(_ do.Injector) (*metrics.Manager, error) {
	return metrics.NewManager(), nil
}
