package config

import "time"

// DBConfig contains PostgreSQL configuration for the primary store.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"trendit"`
	Password string `env:"PASSWORD" envDefault:"trendit"`
	Name     string `env:"NAME"     envDefault:"trendit"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the service applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnLifetime time.Duration `env:"CONN_LIFETIME"  envDefault:"30m"`
}

// RedisConfig contains configuration for the optional mirror store. With
// Enabled false the engine runs against the primary store only.
type RedisConfig struct {
	Enabled  bool          `env:"ENABLED"  envDefault:"false"`
	Addr     string        `env:"ADDR"     envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD" envDefault:""`
	DB       int           `env:"DB"       envDefault:"0"`
	// MirrorTTL bounds how long mirrored records live; zero keeps them until evicted.
	MirrorTTL time.Duration `env:"MIRROR_TTL" envDefault:"72h"`
}
