// Package config defines the environment-driven configuration of the
// collector. Values are loaded with github.com/caarlos0/env; see the
// individual domain files for the available variables:
//   - database.go: primary store and mirror configuration
//   - reddit.go: upstream API configuration
//   - collector.go: runner and pipeline tuning
//   - observability.go: metrics configuration
package config

import (
	"os"
	"strings"
)

// AppConfig is the composed application configuration.
type AppConfig struct {
	// IsDev loosens guardrails for local development.
	// Set DEV=true or APP_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	Reddit    RedditConfig    `envPrefix:"REDDIT_"`
	Collector CollectorConfig `envPrefix:"COLLECTOR_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to values loaded from env. Call it after
// parsing, before wiring anything.
func (c *AppConfig) Sanitize() {
	c.Collector.Sanitize()
	c.Reddit.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}
