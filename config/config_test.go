package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseConfig(t *testing.T) *AppConfig {
	t.Helper()
	cfg := &AppConfig{}
	require.NoError(t, env.Parse(cfg))
	cfg.Sanitize()
	return cfg
}

func TestAppConfigDefaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.False(t, cfg.IsDev)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.Collector.Workers)
	assert.Equal(t, 100, cfg.Collector.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Collector.PollInterval)
	assert.Equal(t, 10, cfg.Collector.AnalyticsTopN)
	assert.Equal(t, 3, cfg.Reddit.MaxRetries)
	assert.False(t, cfg.Observability.Metrics.Enabled)
}

func TestAppConfigFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDDIT_CLIENT_ID", "abc")
	t.Setenv("COLLECTOR_WORKERS", "8")
	t.Setenv("COLLECTOR_POLL_INTERVAL", "30s")

	cfg := parseConfig(t)

	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "abc", cfg.Reddit.ClientID)
	assert.Equal(t, 8, cfg.Collector.Workers)
	assert.Equal(t, 30*time.Second, cfg.Collector.PollInterval)
}

func TestCollectorConfigSanitizeClamps(t *testing.T) {
	c := CollectorConfig{
		Workers:                1000,
		CombinationConcurrency: -1,
		PageSize:               5000,
		PollInterval:           -time.Second,
		AnalyticsTopN:          0,
	}
	c.Sanitize()

	assert.Equal(t, maxWorkers, c.Workers)
	assert.Equal(t, 1, c.CombinationConcurrency)
	assert.Equal(t, maxPageSize, c.PageSize)
	assert.Equal(t, 5*time.Second, c.PollInterval)
	assert.Equal(t, 10, c.AnalyticsTopN)
}

func TestRedditConfigSanitizeClamps(t *testing.T) {
	r := RedditConfig{MaxRetries: 100, BackoffBase: -time.Second}
	r.Sanitize()

	assert.Equal(t, 10, r.MaxRetries)
	assert.Positive(t, r.BackoffBase)
}

func TestDetectDevMode(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg := parseConfig(t)
	assert.True(t, cfg.IsDev)

	t.Setenv("APP_ENV", "production")
	cfg = parseConfig(t)
	assert.False(t, cfg.IsDev)

	t.Setenv("DEV", "true")
	cfg = parseConfig(t)
	assert.True(t, cfg.IsDev)
}
