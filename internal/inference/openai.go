package inference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/ratelimit"
)

// DefaultOpenAIModel is the OpenAI embedding model used when none is configured.
const DefaultOpenAIModel = string(openai.SmallEmbedding3)

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey string
	// BaseURL targets OpenAI-compatible servers. Empty uses api.openai.com.
	BaseURL string
	Model   string
	RPS     float64
	Burst   int
}

// OpenAIEmbedder embeds text with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	limiter *ratelimit.KeyedRateLimiter
	metrics *metrics.Manager
	logger  *slog.Logger
}

// NewOpenAIEmbedder creates an embedder. m and logger may be nil.
func NewOpenAIEmbedder(cfg OpenAIConfig, m *metrics.Manager, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.RPS == 0 {
		cfg.RPS = defaultRPS
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		metrics: m,
		logger:  logger,
	}
}

// Embed returns one vector per text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx, e.model); err != nil {
		return nil, wrapError(opEmbed, e.model, fmt.Errorf("rate limit wait: %w", err))
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	e.metrics.ObserveInference(opEmbed, e.model, outcome(err), time.Since(start))
	if err != nil {
		return nil, wrapError(opEmbed, e.model, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, wrapError(opEmbed, e.model, fmt.Errorf("%w: %d vectors for %d inputs", ErrBadResponse, len(resp.Data), len(texts)))
	}
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, wrapError(opEmbed, e.model, fmt.Errorf("%w: index %d out of range", ErrBadResponse, d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	e.logger.Debug("openai embeddings", "model", e.model, "inputs", len(texts), "tokens", resp.Usage.TotalTokens)
	return vectors, nil
}

// Close releases resources held by the embedder.
func (e *OpenAIEmbedder) Close() {
	e.limiter.Stop()
}
