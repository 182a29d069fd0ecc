package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/inference"
)

const (
	// EnvPrefix prefixes every environment override. "__" separates nesting levels:
	// BOOKREC_INFERENCE__TOKEN sets inference.token.
	EnvPrefix = "BOOKREC_"

	// ConfigPathEnvVar names a YAML config file when --config is not given.
	ConfigPathEnvVar = "BOOKREC_CONFIG"
)

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{Dir: "data"},
		Inference: InferenceConfig{
			BaseURL:         inference.DefaultBaseURL,
			ZeroShotModel:   inference.DefaultZeroShotModel,
			EmotionModel:    inference.DefaultEmotionModel,
			EmbeddingModel:  inference.DefaultEmbeddingModel,
			Timeout:         60 * time.Second,
			RPS:             5,
			Burst:           5,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:    "huggingface",
			OpenAIModel: inference.DefaultOpenAIModel,
			BatchSize:   32,
		},
		Retrieval: RetrievalConfig{Mode: RetrievalVector, TopK: 5},
		Pipeline:  PipelineConfig{MinWords: 30, SamplePerLabel: 300},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   90 * time.Second, // recommendations wait on inference
			IdleTimeout:    60 * time.Second,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
	}
}

// LoadOptions carries the inputs that do not come from the environment.
type LoadOptions struct {
	// Path is a YAML file. Empty falls back to BOOKREC_CONFIG, then to no file.
	Path string
	// Overrides are explicitly set command-line flags keyed by config path, e.g. "logger.level".
	Overrides map[string]any
	// Environ replaces os.Environ, for tests.
	Environ func() []string
}

// Load builds a Config by layering, lowest precedence first:
//  1. defaults
//  2. YAML file
//  3. environment (BOOKREC_ prefix)
//  4. command-line overrides
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := opts.Path
	if path == "" {
		path = lookupEnv(opts.Environ, ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, domainerrors.Wrapf(err, domainerrors.CodeConfiguration, "load config file %s", path)
		}
	}

	if opts.Environ != nil {
		if err := loadFrom(k, opts.Environ()); err != nil {
			return nil, err
		}
	} else if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("apply override %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "decode configuration")
	}

	applySecretFallbacks(cfg, opts.Environ)
	cfg.Logger.Level = strings.ToLower(cfg.Logger.Level)

	if err := cfg.resolvePaths(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "resolve paths")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps BOOKREC_INFERENCE__TOKEN to inference.token. BOOKREC_CONFIG names the file, not a setting,
// and maps to "" so koanf skips it.
func envKey(s string) string {
	if s == ConfigPathEnvVar {
		return ""
	}
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// loadFrom applies BOOKREC_ variables from an explicit environment list.
func loadFrom(k *koanf.Koanf, environ []string) error {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		path := envKey(key)
		if path == "" {
			continue
		}
		if err := k.Set(path, value); err != nil {
			return fmt.Errorf("apply %s: %w", key, err)
		}
	}
	return nil
}

// applySecretFallbacks reads the conventional token variables when no BOOKREC_ value is set.
func applySecretFallbacks(cfg *Config, environ func() []string) {
	if cfg.Inference.Token == "" {
		cfg.Inference.Token = lookupEnv(environ, "HF_TOKEN")
	}
	if cfg.Embedding.OpenAIKey == "" {
		cfg.Embedding.OpenAIKey = lookupEnv(environ, "OPENAI_API_KEY")
	}
}

func lookupEnv(environ func() []string, key string) string {
	if environ == nil {
		return os.Getenv(key)
	}
	for _, kv := range environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}
