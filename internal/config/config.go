package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the top-level configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	NewsAPI    NewsAPIConfig    `yaml:"newsapi" mapstructure:"newsapi"`
	Feed       FeedConfig       `yaml:"feed" mapstructure:"feed"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the article store. An empty DatabaseURL with the
// postgres driver leaves the pipeline without a store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NewsAPIConfig configures the NewsAPI headline provider.
type NewsAPIConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	PageSize   int     `yaml:"page_size" mapstructure:"page_size"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// FeedConfig lists RSS feeds used when no NewsAPI key is set.
type FeedConfig struct {
	URLs []string `yaml:"urls" mapstructure:"urls"`
}

// LLMConfig selects the text service backing the enrichment stages.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RedisConfig configures the batch sink. An empty Addr logs batches instead.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Channel  string `yaml:"channel" mapstructure:"channel"`
}

// PipelineConfig configures scheduling and stage behavior.
type PipelineConfig struct {
	IntervalMinutes  int `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	StageTimeoutSecs int `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
	BatchConcurrency int `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `yaml:"port" mapstructure:"port"`
	APIToken string `yaml:"api_token" mapstructure:"api_token"`
}

// MonitoringConfig configures health checks and webhook alerts.
type MonitoringConfig struct {
	WebhookURL        string `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs int    `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
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
	v.SetEnvPrefix("NEWSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "newsdesk.db")
	v.SetDefault("newsapi.key", "")
	v.SetDefault("newsapi.base_url", "https://newsapi.org")
	v.SetDefault("newsapi.page_size", 10)
	v.SetDefault("newsapi.rate_per_sec", 1.0)
	v.SetDefault("feed.urls", []string{})
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", "newsdesk:articles")
	v.SetDefault("pipeline.interval_minutes", 10)
	v.SetDefault("pipeline.stage_timeout_secs", 30)
	v.SetDefault("pipeline.batch_concurrency", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_token", "")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
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

// Validate checks the fields a command mode depends on. Mode is one of
// "run", "serve" or "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be postgres or sqlite", c.Store.Driver))
	}
	switch c.LLM.Provider {
	case "anthropic", "gemini":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider %q must be anthropic or gemini", c.LLM.Provider))
	}
	if c.Pipeline.StageTimeoutSecs < 1 {
		errs = append(errs, "pipeline.stage_timeout_secs must be > 0")
	}
	if c.Pipeline.BatchConcurrency < 0 || c.Pipeline.BatchConcurrency > 50 {
		errs = append(errs, "pipeline.batch_concurrency must be between 0 and 50")
	}
	if c.Pipeline.IntervalMinutes < 0 {
		errs = append(errs, "pipeline.interval_minutes must be >= 0")
	}

	switch mode {
	case "run":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "export":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
