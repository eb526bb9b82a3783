// Package config loads the service configuration from a YAML file with
// environment overrides for secrets. Missing files fall back to defaults so
// the binary runs out of the box in stub mode.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Model provider names.
const (
	ProviderBedrock   = "bedrock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderStub      = "stub"
)

// Session backend names.
const (
	BackendInMem = "inmem"
	BackendMongo = "mongo"
	BackendRedis = "redis"
)

type (
	// Config is the root service configuration.
	Config struct {
		// Model configures the model provider used by the pipeline.
		Model ModelConfig `yaml:"model"`

		// Session configures trace persistence.
		Session SessionConfig `yaml:"session"`

		// HTTP configures the HTTP front end.
		HTTP HTTPConfig `yaml:"http"`

		// Logging configures log output.
		Logging LoggingConfig `yaml:"logging"`

		// ExtraDisclaimers are appended to the fixed advisory disclaimer on
		// every finance-bearing response.
		ExtraDisclaimers []string `yaml:"extra_disclaimers"`
	}

	// ModelConfig selects and tunes the model provider.
	ModelConfig struct {
		// Provider is one of "bedrock", "openai", "anthropic" or "stub".
		Provider string `yaml:"provider"`

		// ID is the provider-specific model identifier.
		ID string `yaml:"id"`

		// Region is the AWS region for the bedrock provider.
		Region string `yaml:"region"`

		// MaxTokens caps the completion length. Zero uses provider defaults.
		MaxTokens int `yaml:"max_tokens"`

		// Temperature is the sampling temperature.
		Temperature float32 `yaml:"temperature"`

		// RateLimitTPM enables the adaptive rate limiter with the given
		// initial tokens-per-minute budget. Zero disables rate limiting.
		RateLimitTPM int `yaml:"rate_limit_tpm"`
	}

	// SessionConfig selects the trace store backend.
	SessionConfig struct {
		// Backend is one of "inmem", "mongo" or "redis".
		Backend string `yaml:"backend"`

		// MongoURI is the connection string for the mongo backend.
		MongoURI string `yaml:"mongo_uri"`

		// MongoDatabase names the database for the mongo backend.
		MongoDatabase string `yaml:"mongo_database"`

		// RedisAddr is the host:port for the redis backend.
		RedisAddr string `yaml:"redis_addr"`

		// TTL bounds how long redis traces are retained.
		TTL time.Duration `yaml:"ttl"`
	}

	// HTTPConfig configures the HTTP front end.
	HTTPConfig struct {
		// Addr is the listen address. Empty disables the HTTP server and the
		// binary runs in one-shot CLI mode.
		Addr string `yaml:"addr"`
	}

	// LoggingConfig configures log output.
	LoggingConfig struct {
		// Format is "text" or "json".
		Format string `yaml:"format"`

		// Debug enables debug-level logging.
		Debug bool `yaml:"debug"`
	}
)

// Default returns the configuration used when no file is present: the stub
// model provider and the in-memory session store.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    ProviderStub,
			Temperature: 0.2,
		},
		Session: SessionConfig{
			Backend:       BackendInMem,
			MongoDatabase: "finsense",
			RedisAddr:     "localhost:6379",
			TTL:           24 * time.Hour,
		},
		Logging: LoggingConfig{
			Format: "text",
		},
	}
}

// Load reads the configuration from path, layering it over the defaults. A
// missing file returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum fields and provider prerequisites.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderBedrock, ProviderOpenAI, ProviderAnthropic, ProviderStub:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	if c.Model.Provider != ProviderStub && c.Model.ID == "" {
		return fmt.Errorf("model id is required for provider %q", c.Model.Provider)
	}
	switch c.Session.Backend {
	case BackendInMem, BackendRedis:
	case BackendMongo:
		if c.Session.MongoURI == "" {
			return fmt.Errorf("mongo_uri is required for the mongo session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}
