// Package config provides application configuration layered from defaults, a YAML file,
// BOOKREC_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/validation"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Logger    LoggerConfig    `koanf:"logger"`
	Data      DataConfig      `koanf:"data"`
	Inference InferenceConfig `koanf:"inference"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Category  CategoryConfig  `koanf:"category"`
	Server    ServerConfig    `koanf:"server"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment" validate:"required,oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
	// Format is "json" or "pretty". Empty picks by environment.
	Format string `koanf:"format" validate:"omitempty,oneof=json pretty"`
}

// DataConfig holds dataset and store locations. Empty paths are derived from Dir.
type DataConfig struct {
	Dir             string `koanf:"dir" validate:"required"`
	RawBooks        string `koanf:"raw_books"`
	PreprocessedDir string `koanf:"preprocessed_dir"`
	VectorsPath     string `koanf:"vectors_path"`
	SearchPath      string `koanf:"search_path"`
	CatalogPath     string `koanf:"catalog_path"`
}

// CleanedCSV is the output of the clean stage.
func (d DataConfig) CleanedCSV() string {
	return filepath.Join(d.PreprocessedDir, "books_cleaned.csv")
}

// CategorizedCSV is the output of the categorize stage.
func (d DataConfig) CategorizedCSV() string {
	return filepath.Join(d.PreprocessedDir, "books_with_cats.csv")
}

// EmotionsCSV is the output of the emotions stage and the source of the catalog.
func (d DataConfig) EmotionsCSV() string {
	return filepath.Join(d.PreprocessedDir, "books_with_emotions.csv")
}

// TaggedDescriptions is the one-document-per-line file embedded by the index stage.
func (d DataConfig) TaggedDescriptions() string {
	return filepath.Join(d.PreprocessedDir, "tagged_descriptions.txt")
}

// InferenceConfig configures the Hugging Face inference client.
type InferenceConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	Token          string        `koanf:"token"`
	ZeroShotModel  string        `koanf:"zero_shot_model" validate:"required"`
	EmotionModel   string        `koanf:"emotion_model" validate:"required"`
	EmbeddingModel string        `koanf:"embedding_model" validate:"required"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	RPS            float64       `koanf:"rps" validate:"gte=0"`
	Burst          int           `koanf:"burst" validate:"gte=1"`
	// BreakerFailures is the number of consecutive failures that open the circuit.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider      string `koanf:"provider" validate:"required,oneof=huggingface openai"`
	OpenAIKey     string `koanf:"openai_key"`
	OpenAIBaseURL string `koanf:"openai_base_url" validate:"omitempty,url"`
	OpenAIModel   string `koanf:"openai_model"`
	BatchSize     int    `koanf:"batch_size" validate:"gte=1,lte=2048"`
}

// Retrieval modes.
const (
	RetrievalVector  = "vector"
	RetrievalLexical = "lexical"
)

// RetrievalConfig configures candidate retrieval for recommendations.
type RetrievalConfig struct {
	Mode string `koanf:"mode" validate:"required,oneof=vector lexical"`
	TopK int    `koanf:"top_k" validate:"gte=1,lte=1000"`
}

// PipelineConfig tunes the offline stages.
type PipelineConfig struct {
	MinWords       int `koanf:"min_words" validate:"gte=0"`
	SamplePerLabel int `koanf:"sample_per_label" validate:"gte=1"`
}

// CategoryConfig configures category mapping.
type CategoryConfig struct {
	// MappingFile optionally replaces the built-in raw category table.
	MappingFile string `koanf:"mapping_file"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	CORSOrigins  []string      `koanf:"cors_origins"`

	// RateLimitRPS is the per-client request rate. Zero disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		var ve *domainerrors.Error
		if errors.As(err, &ve) {
			return domainerrors.Configurationf("invalid configuration").WithDetails(ve.Details)
		}
		return err
	}

	if c.Embedding.Provider == "openai" && c.Retrieval.Mode == RetrievalVector && c.Embedding.OpenAIKey == "" {
		return domainerrors.Configurationf("embedding.openai_key is required when embedding.provider is openai")
	}
	return nil
}

// resolvePaths expands ~, makes paths absolute and derives unset paths from the data directory.
func (c *Config) resolvePaths() error {
	dir, err := expandPath(c.Data.Dir, "")
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	c.Data.Dir = dir

	paths := []struct {
		value *string
		def   string
	}{
		{&c.Data.RawBooks, filepath.Join(dir, "raw", "books.csv")},
		{&c.Data.PreprocessedDir, filepath.Join(dir, "preprocessed")},
		{&c.Data.VectorsPath, filepath.Join(dir, "vectors")},
		{&c.Data.SearchPath, filepath.Join(dir, "search.bleve")},
		{&c.Data.CatalogPath, filepath.Join(dir, "catalog.db")},
		{&c.Category.MappingFile, ""},
	}
	for _, p := range paths {
		expanded, err := expandPath(*p.value, p.def)
		if err != nil {
			return err
		}
		*p.value = expanded
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}
