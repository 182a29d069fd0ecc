package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/inference"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/store"
)

// InferenceClientHandle wraps the Hugging Face client with shutdown capability.
type InferenceClientHandle struct {
	*inference.Client
}

// Shutdown implements do.Shutdownable.
func (h *InferenceClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideInferenceClient provides the hosted inference client used for zero-shot, emotion and
// (by default) embedding calls.
func ProvideInferenceClient(i do.Injector) (*InferenceClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Manager](i)

	client := inference.New(inference.Config{
		BaseURL: cfg.Inference.BaseURL,
		Token:   cfg.Inference.Token,
		Models: inference.Models{
			ZeroShot:  cfg.Inference.ZeroShotModel,
			Emotion:   cfg.Inference.EmotionModel,
			Embedding: cfg.Inference.EmbeddingModel,
		},
		Timeout: cfg.Inference.Timeout,
		RPS:     cfg.Inference.RPS,
		Burst:   cfg.Inference.Burst,
		Breaker: inference.BreakerConfig{
			ConsecutiveFailures: cfg.Inference.BreakerFailures,
			Timeout:             cfg.Inference.BreakerTimeout,
		},
	}, m, log.Logger)

	if cfg.Inference.Token == "" {
		log.Warn("No inference token configured, requests may be throttled or rejected")
	}
	return &InferenceClientHandle{Client: client}, nil
}

// EmbedderHandle holds the configured embedder. Embedder is nil in lexical retrieval mode.
type EmbedderHandle struct {
	Embedder store.Embedder
	close    func()
}

// Shutdown implements do.Shutdownable.
func (h *EmbedderHandle) Shutdown() error {
	if h.close != nil {
		h.close()
	}
	return nil
}

// ProvideEmbedder provides the embedder selected by embedding.provider.
func ProvideEmbedder(i do.Injector) (*EmbedderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Retrieval.Mode == config.RetrievalLexical {
		log.Debug("Lexical retrieval selected, no embedder configured")
		return &EmbedderHandle{}, nil
	}

	switch cfg.Embedding.Provider {
	case "openai":
		m := do.MustInvoke[*metrics.Manager](i)
		e := inference.NewOpenAIEmbedder(inference.OpenAIConfig{
			APIKey:  cfg.Embedding.OpenAIKey,
			BaseURL: cfg.Embedding.OpenAIBaseURL,
			Model:   cfg.Embedding.OpenAIModel,
			RPS:     cfg.Inference.RPS,
			Burst:   cfg.Inference.Burst,
		}, m, log.Logger)
		return &EmbedderHandle{Embedder: e, close: e.Close}, nil
	default:
		// The shared client owns its own shutdown.
		client := do.MustInvoke[*InferenceClientHandle](i)
		return &EmbedderHandle{Embedder: client.Client}, nil
	}
}
