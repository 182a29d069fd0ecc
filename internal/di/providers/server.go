package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookrec/internal/api"
	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/recommend"
)

// APIServerHandle wraps the HTTP handler with Shutdownable.
type APIServerHandle struct {
	*api.Server
	Config api.HTTPConfig
}

// Shutdown implements do.Shutdownable.
func (h *APIServerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ShutdownTimeout bounds graceful HTTP shutdown.
func (h *APIServerHandle) ShutdownTimeout() time.Duration {
	return shutdownTimeout
}

// ProvideAPIServer provides the HTTP API. The listener is started by the serve command.
func ProvideAPIServer(i do.Injector) (*APIServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Recommender: do.MustInvoke[*recommend.Recommender](i),
		Search:      do.MustInvoke[*SearchIndexHandle](i).SearchIndex,
		Catalog:     do.MustInvoke[*CatalogHandle](i).Store,
	}
	if cfg.Retrieval.Mode == config.RetrievalVector {
		services.Vectors = do.MustInvoke[*VectorStoreHandle](i).Store
		if b, ok := do.MustInvoke[*EmbedderHandle](i).Embedder.(api.Breaker); ok {
			services.Inference = b
		}
	}

	server := api.NewServer(services, api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}, do.MustInvoke[*metrics.Manager](i), log.Logger)

	return &APIServerHandle{
		Server: server,
		Config: api.HTTPConfig{
			Addr:         cfg.Server.Addr,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}
