package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/trendit/collector-go/config"
	"github.com/trendit/collector-go/internal/adapters/reddit"
	"github.com/trendit/collector-go/internal/adapters/runner"
	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/data"
	"github.com/trendit/collector-go/internal/observability/statsd"
)

// NewMetricsSink constructs the StatsD client from observability config. The
// returned client is a no-op when metrics are disabled.
func NewMetricsSink(cfg config.ObservabilityConfig, logger *slog.Logger) (*statsd.Client, error) {
	return statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
}

// NewMirrorStore wraps the Redis client as the engine's mirror store. A nil
// client yields a nil store, which every caller treats as "no mirror".
func NewMirrorStore(client redis.UniversalClient, cfg config.RedisConfig) core.MirrorStore {
	if client == nil {
		return nil
	}
	return data.NewRedisMirrorRepo(client, cfg.MirrorTTL)
}

// NewRedditClient constructs the upstream page fetcher.
func NewRedditClient(cfg config.RedditConfig, logger *slog.Logger) *reddit.Client {
	return reddit.NewClient(reddit.ClientOptions{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		BaseURL:        cfg.BaseURL,
		TokenURL:       cfg.TokenURL,
		UserAgent:      cfg.UserAgent,
		Logger:         logger,
		MaxRetries:     cfg.MaxRetries,
		BackoffBase:    cfg.BackoffBase,
		AttemptTimeout: cfg.AttemptTimeout,
	})
}

// NewRunner wires the full collection runner from configuration.
func NewRunner(db *sql.DB, cfg config.AppConfig, mirror core.MirrorStore, sink statsd.Sink, logger *slog.Logger) (*runner.Runner, error) {
	return runner.NewRunner(runner.Options{
		DB:                     db,
		Logger:                 logger,
		Fetcher:                NewRedditClient(cfg.Reddit, logger),
		Mirror:                 mirror,
		Metrics:                sink,
		Workers:                cfg.Collector.Workers,
		PollInterval:           cfg.Collector.PollInterval,
		CombinationConcurrency: cfg.Collector.CombinationConcurrency,
		PageSize:               cfg.Collector.PageSize,
		AnalyticsTopN:          cfg.Collector.AnalyticsTopN,
	})
}
