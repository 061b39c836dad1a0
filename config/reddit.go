package config

import "time"

// RedditConfig contains upstream API configuration. The client uses the
// application-only OAuth grant, so only an app id and secret are needed.
type RedditConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	BaseURL      string `env:"BASE_URL"   envDefault:"https://oauth.reddit.com"`
	TokenURL     string `env:"TOKEN_URL"  envDefault:"https://www.reddit.com/api/v1/access_token"`
	UserAgent    string `env:"USER_AGENT" envDefault:"trendit-collector/1.0"`

	MaxRetries     int           `env:"MAX_RETRIES"     envDefault:"3"`
	BackoffBase    time.Duration `env:"BACKOFF_BASE"    envDefault:"500ms"`
	AttemptTimeout time.Duration `env:"ATTEMPT_TIMEOUT" envDefault:"15s"`
}

// Sanitize clamps retry settings into safe ranges.
func (c *RedditConfig) Sanitize() {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > 10 {
		c.MaxRetries = 10
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 15 * time.Second
	}
}
