// Package config loads and validates vaultsearch configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Index, Search, Autofill, Corpus, Kafka, Logging,
// Metrics).
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Search   SearchConfig   `yaml:"search"`
	Autofill AutofillConfig `yaml:"autofill"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IndexConfig controls index construction.
type IndexConfig struct {
	// Workers is the size of the tokenizing worker pool.
	Workers int `yaml:"workers"`
}

// SearchConfig controls query execution.
type SearchConfig struct {
	// CacheSize is the number of ranked queries remembered per index
	// snapshot; 0 disables the cache.
	CacheSize    int `yaml:"cacheSize"`
	DefaultLimit int `yaml:"defaultLimit"`
}

// AutofillConfig controls how many entries are offered to a form.
type AutofillConfig struct {
	MaxCandidates int `yaml:"maxCandidates"`
	// CandidatePool is how many index hits are re-ranked by the relevance
	// scorer before MaxCandidates are kept.
	CandidatePool int `yaml:"candidatePool"`
}

// CorpusConfig points at the plaintext export used by the CLI.
type CorpusConfig struct {
	Path     string        `yaml:"path"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// KafkaConfig holds broker settings for vault lifecycle events.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	VaultEvents string `yaml:"vaultEvents"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config suitable for local use.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Workers: runtime.NumCPU(),
		},
		Search: SearchConfig{
			CacheSize:    128,
			DefaultLimit: 20,
		},
		Autofill: AutofillConfig{
			MaxCandidates: 5,
			CandidatePool: 20,
		},
		Corpus: CorpusConfig{
			Debounce: 250 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vaultsearch",
			Topics: KafkaTopics{
				VaultEvents: "vault-events",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9464,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Index.Workers < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "index.workers must be >= 0, got %d", c.Index.Workers)
	case c.Search.CacheSize < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "search.cacheSize must be >= 0, got %d", c.Search.CacheSize)
	case c.Search.DefaultLimit < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "search.defaultLimit must be >= 0, got %d", c.Search.DefaultLimit)
	case c.Autofill.MaxCandidates <= 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "autofill.maxCandidates must be > 0, got %d", c.Autofill.MaxCandidates)
	case c.Autofill.CandidatePool < c.Autofill.MaxCandidates:
		return apperrors.Newf(apperrors.ErrInvalidConfig,
			"autofill.candidatePool (%d) must be >= autofill.maxCandidates (%d)",
			c.Autofill.CandidatePool, c.Autofill.MaxCandidates)
	case c.Corpus.Debounce < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "corpus.debounce must be >= 0, got %s", c.Corpus.Debounce)
	case c.Kafka.Enabled && len(c.Kafka.Brokers) == 0:
		return apperrors.New(apperrors.ErrInvalidConfig, "kafka.brokers required when kafka is enabled")
	case c.Kafka.Enabled && c.Kafka.Topics.VaultEvents == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "kafka.topics.vaultEvents required when kafka is enabled")
	case c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535):
		return apperrors.Newf(apperrors.ErrInvalidConfig, "metrics.port out of range: %d", c.Metrics.Port)
	}
	return nil
}

// applyEnvOverrides reads VS_* environment variables and overrides the
// corresponding config fields. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VS_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Workers = n
		}
	}
	if v := os.Getenv("VS_SEARCH_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.CacheSize = n
		}
	}
	if v := os.Getenv("VS_AUTOFILL_MAX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Autofill.MaxCandidates = n
		}
	}
	if v := os.Getenv("VS_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("VS_CORPUS_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Corpus.Watch = b
		}
	}
	if v := os.Getenv("VS_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("VS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("VS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
