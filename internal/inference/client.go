// Package inference calls hosted models: zero-shot classification, emotion classification and text embeddings.
package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/ratelimit"
)

const (
	// DefaultBaseURL is the Hugging Face serverless inference endpoint.
	DefaultBaseURL = "https://router.huggingface.co/hf-inference"

	DefaultZeroShotModel  = "facebook/bart-large-mnli"
	DefaultEmotionModel   = "j-hartmann/emotion-english-distilroberta-base"
	DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"

	defaultTimeout = 60 * time.Second
	defaultRPS     = 5.0
	defaultBurst   = 5

	// maxErrorBody bounds how much of an error response ends up in logs.
	maxErrorBody = 512
)

// Models names the model used for each task.
type Models struct {
	ZeroShot  string
	Emotion   string
	Embedding string
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL string
	Token   string
	Models  Models
	Timeout time.Duration
	RPS     float64
	Burst   int
	Breaker BreakerConfig
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client is a rate-limited, circuit-broken Hugging Face inference client.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	models  Models
	limiter *ratelimit.KeyedRateLimiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	metrics *metrics.Manager
	logger  *slog.Logger
}

// New creates a client. m and logger may be nil.
func New(cfg Config, m *metrics.Manager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS == 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	cfg.Models = withDefaultModels(cfg.Models)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		models:  cfg.Models,
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		breaker: newBreaker("huggingface", cfg.Breaker, m, logger),
		metrics: m,
		logger:  logger,
	}
}

func withDefaultModels(m Models) Models {
	if m.ZeroShot == "" {
		m.ZeroShot = DefaultZeroShotModel
	}
	if m.Emotion == "" {
		m.Emotion = DefaultEmotionModel
	}
	if m.Embedding == "" {
		m.Embedding = DefaultEmbeddingModel
	}
	return m
}

// Models returns the configured model names.
func (c *Client) Models() Models {
	return c.models
}

// BreakerState reports the circuit breaker state ("closed", "half-open" or "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// options asks the serverless API to block until a cold model is loaded instead of returning 503.
type options struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

func defaultOptions() options {
	return options{WaitForModel: true, UseCache: true}
}

// post sends payload to path for model and returns the raw response body.
func (c *Client) post(ctx context.Context, op, model, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx, model); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, op, model, c.baseURL+path, body)
	})
	c.metrics.ObserveInference(op, model, outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, model, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bookrec/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("inference request", "op", op, "model", model, "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return data, nil
	}
	c.logger.Warn("inference request failed",
		"op", op,
		"model", model,
		"status", resp.StatusCode,
		"body", truncate(data, maxErrorBody),
	)
	return nil, statusError(resp.StatusCode, data)
}

func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusServiceUnavailable && bytes.Contains(bytes.ToLower(body), []byte("loading")):
		return ErrModelLoading
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrServer, status)
	case status >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrBadRequest, status, truncate(body, maxErrorBody))
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
