package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "equitas.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfigIsValid(t *testing.T) {
	config := NewDefaultConfig()
	require.NoError(t, ValidateConfig(config))

	sum := 0.0
	for _, w := range config.Analysis.Scoring.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 24, config.CacheTTLHours())
}

func TestLoadFromFilesMergesInOrder(t *testing.T) {
	base := writeConfig(t, `
[logging]
level = "debug"

[eodhd]
exchange = "AU"
rate_limit = 5

[analysis.scoring.weights]
valuation = 0.30
growth = 0.15
`)
	override := writeConfig(t, `
[eodhd]
rate_limit = 2

[watch]
tickers = ["AU:BHP", "AU:RIO"]
`)

	config, err := LoadFromFiles(base, "", override)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "AU", config.EODHD.Exchange)
	assert.Equal(t, 2, config.EODHD.RateLimit)
	assert.Equal(t, 30, config.EODHD.TimeoutSeconds, "untouched defaults survive")
	assert.Equal(t, []string{"AU:BHP", "AU:RIO"}, config.Watch.Tickers)
	assert.Equal(t, 0.30, config.Analysis.Scoring.Weights["valuation"])
	assert.Equal(t, 0.15, config.Analysis.Scoring.Weights["growth"])
	assert.Equal(t, 0.20, config.Analysis.Scoring.Weights["profitability"])
}

func TestLoadFromFilesErrors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "[logging\nlevel ="))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EQUITAS_EODHD_API_KEY", "env-key")
	t.Setenv("EQUITAS_LOG_LEVEL", "warn")
	t.Setenv("EQUITAS_BADGER_PATH", "/tmp/equitas-db")
	t.Setenv("EQUITAS_CACHE_TTL_HOURS", "6")
	t.Setenv("EQUITAS_CACHE_ENABLED", "false")
	t.Setenv("EQUITAS_WATCH_TICKERS", "AAPL, MSFT,,")
	t.Setenv("EQUITAS_COLLECTOR_CONCURRENCY", "not-a-number")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "env-key", config.EODHD.APIKey)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/tmp/equitas-db", config.Storage.Badger.Path)
	assert.Equal(t, 6, config.Cache.TTLHours)
	assert.Equal(t, 0, config.CacheTTLHours())
	assert.Equal(t, []string{"AAPL", "MSFT"}, config.Watch.Tickers)
	assert.Equal(t, 4, config.Collector.Concurrency, "unparsable values are ignored")
}

func TestEnvAPIKeyFallback(t *testing.T) {
	t.Setenv("EQUITAS_EODHD_API_KEY", "")
	t.Setenv("EODHD_API_KEY", "plain-key")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "plain-key", config.EODHD.APIKey)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log output", func(c *Config) { c.Logging.Output = []string{"syslog"} }},
		{"empty badger path", func(c *Config) { c.Storage.Badger.Path = "" }},
		{"unsupported storage", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"zero concurrency", func(c *Config) { c.Collector.Concurrency = 0 }},
		{"negative ttl", func(c *Config) { c.Cache.TTLHours = -1 }},
		{"bad schedule", func(c *Config) { c.Watch.Schedule = "every day" }},
		{"bad watch ticker", func(c *Config) { c.Watch.Tickers = []string{"NOT A TICKER"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 7 * * 1-5"))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("* * * * *"))
	assert.Error(t, ValidateSchedule("*/2 * * * *"))
	assert.Error(t, ValidateSchedule("0 7 * *"))
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, "", "")
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "./data", config.Storage.Badger.Path)

	ApplyFlagOverrides(config, "debug", "/var/lib/equitas")
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "/var/lib/equitas", config.Storage.Badger.Path)
}
