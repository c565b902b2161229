package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "newsdesk.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://newsapi.org", cfg.NewsAPI.BaseURL)
	assert.Equal(t, 10, cfg.NewsAPI.PageSize)
	assert.InDelta(t, 1.0, cfg.NewsAPI.RatePerSec, 0.001)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "newsdesk:articles", cfg.Redis.Channel)
	assert.Equal(t, 10, cfg.Pipeline.IntervalMinutes)
	assert.Equal(t, 30, cfg.Pipeline.StageTimeoutSecs)
	assert.Equal(t, 5, cfg.Pipeline.BatchConcurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.NewsAPI.Key)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/news
feed:
  urls:
    - https://example.com/rss
    - https://example.org/feed
llm:
  provider: gemini
log:
  level: debug
  format: console
pipeline:
  interval_minutes: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/news", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"https://example.com/rss", "https://example.org/feed"}, cfg.Feed.URLs)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Pipeline.IntervalMinutes)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Pipeline.StageTimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("NEWSDESK_STORE_DRIVER", "postgres")
	t.Setenv("NEWSDESK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("NEWSDESK_SERVER_PORT", "3000")
	t.Setenv("NEWSDESK_NEWSAPI_KEY", "news-key")
	t.Setenv("NEWSDESK_ANTHROPIC_KEY", "sk-ant-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "news-key", cfg.NewsAPI.Key)
	assert.Equal(t, "sk-ant-key", cfg.Anthropic.Key)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "newsdesk.db"
	cfg.LLM.Provider = "anthropic"
	cfg.Pipeline.IntervalMinutes = 10
	cfg.Pipeline.StageTimeoutSecs = 30
	cfg.Pipeline.BatchConcurrency = 5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"run", "serve", "export"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateExport_RequiresDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("export")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.LLM.Provider = "openai"
	cfg.Pipeline.StageTimeoutSecs = 0

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "llm.provider")
	assert.Contains(t, err.Error(), "stage_timeout_secs")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.BatchConcurrency = -1
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch_concurrency must be between 0 and 50")

	cfg.Pipeline.BatchConcurrency = 51
	assert.Error(t, cfg.Validate("run"))

	cfg.Pipeline.BatchConcurrency = 0
	assert.NoError(t, cfg.Validate("run"))

	cfg.Pipeline.BatchConcurrency = 50
	assert.NoError(t, cfg.Validate("run"))
}
