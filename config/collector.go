package config

import "time"

// CollectorConfig contains runner and pipeline tuning.
type CollectorConfig struct {
	// Workers is the number of jobs executed concurrently.
	Workers int `env:"WORKERS" envDefault:"2"`
	// CombinationConcurrency bounds in-flight combinations within one job.
	CombinationConcurrency int `env:"COMBINATION_CONCURRENCY" envDefault:"4"`
	// PageSize is the listing page size requested from the upstream API.
	PageSize int `env:"PAGE_SIZE" envDefault:"100"`
	// PollInterval is the idle wait between pending-queue checks.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	// AnalyticsTopN bounds every ranked list in the analytics summary.
	AnalyticsTopN int `env:"ANALYTICS_TOP_N" envDefault:"10"`
}

const (
	maxWorkers  = 32
	maxPageSize = 100 // upstream listing cap
)

// Sanitize clamps tuning values into safe ranges.
func (c *CollectorConfig) Sanitize() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Workers > maxWorkers {
		c.Workers = maxWorkers
	}
	if c.CombinationConcurrency <= 0 {
		c.CombinationConcurrency = 1
	}
	if c.PageSize <= 0 || c.PageSize > maxPageSize {
		c.PageSize = maxPageSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.AnalyticsTopN <= 0 {
		c.AnalyticsTopN = 10
	}
}
