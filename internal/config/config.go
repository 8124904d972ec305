package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/scholar-cli/internal/classify"
	"github.com/sells-group/scholar-cli/internal/dedupe"
	"github.com/sells-group/scholar-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Dedupe    DedupeConfig    `yaml:"dedupe" mapstructure:"dedupe"`
	Tagger    TaggerConfig    `yaml:"tagger" mapstructure:"tagger"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the checkpoint store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SourcesConfig configures source handling.
type SourcesConfig struct {
	// Priority orders sources from most to least trusted. It breaks
	// completeness ties during merge and sets normalization order.
	Priority []string `yaml:"priority" mapstructure:"priority"`
}

// DedupeConfig configures the duplicate detector.
type DedupeConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// TaggerConfig maps domain names to vocabulary CSV paths.
type TaggerConfig struct {
	VocabFiles map[string]string `yaml:"vocab_files" mapstructure:"vocab_files"`
}

// ClassifyConfig configures the classification orchestrator.
type ClassifyConfig struct {
	QuestionsFile      string `yaml:"questions_file" mapstructure:"questions_file"`
	MaxInFlight        int    `yaml:"max_in_flight" mapstructure:"max_in_flight"`
	MinIntervalMs      int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	MaxAttempts        int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs   int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffSecs     int    `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCHOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "scholar.db")
	v.SetDefault("sources.priority", dedupe.DefaultSourcePriority)
	v.SetDefault("dedupe.similarity_threshold", dedupe.DefaultSimilarityThreshold)
	v.SetDefault("classify.questions_file", "questions.yaml")
	v.SetDefault("classify.max_in_flight", 4)
	v.SetDefault("classify.min_interval_ms", 500)
	v.SetDefault("classify.request_timeout_secs", 60)
	v.SetDefault("classify.max_attempts", 3)
	v.SetDefault("classify.initial_backoff_ms", 500)
	v.SetDefault("classify.max_backoff_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for a command mode: "classify" for
// anything that calls the classifier, "tag" for pipeline runs stopping
// after tagging, "runs" for read-only store access. Failures are
// configuration errors and abort before any I/O.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			missing = append(missing, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required for the postgres driver")
		}
	default:
		missing = append(missing, "store.driver must be sqlite or postgres")
	}

	if t := c.Dedupe.SimilarityThreshold; t <= 0 || t > 1 {
		missing = append(missing, "dedupe.similarity_threshold must be in (0, 1]")
	}

	switch mode {
	case "classify":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Classify.QuestionsFile == "" {
			missing = append(missing, "classify.questions_file is required")
		}
		if c.Classify.MaxInFlight < 1 || c.Classify.MaxInFlight > 32 {
			missing = append(missing, "classify.max_in_flight must be between 1 and 32")
		}
		if c.Classify.MaxAttempts < 1 || c.Classify.MaxAttempts > 10 {
			missing = append(missing, "classify.max_attempts must be between 1 and 10")
		}
	case "tag", "runs":
		// Store checks above suffice.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: invalid configuration:\n  - %s", strings.Join(missing, "\n  - "))
	}
	return nil
}

// ClassifyOptions converts the flat file keys into the orchestrator config.
func (c *Config) ClassifyOptions() classify.Config {
	return classify.Config{
		MaxInFlight: c.Classify.MaxInFlight,
		MinInterval: time.Duration(c.Classify.MinIntervalMs) * time.Millisecond,
		Retry: resilience.RetryConfig{
			MaxAttempts:    c.Classify.MaxAttempts,
			InitialBackoff: time.Duration(c.Classify.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(c.Classify.MaxBackoffSecs) * time.Second,
		},
	}
}

// DedupeOptions converts the file keys into the deduplicator config.
func (c *Config) DedupeOptions() dedupe.Config {
	return dedupe.Config{
		SimilarityThreshold: c.Dedupe.SimilarityThreshold,
		SourcePriority:      c.Sources.Priority,
	}
}

// RequestTimeout returns the per-request classifier timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Classify.RequestTimeoutSecs) * time.Second
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
