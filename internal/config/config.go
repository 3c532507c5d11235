package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int           `env:"PORT"             envDefault:"8080"`
	DatabaseDriver  string        `env:"DATABASE_DRIVER"  envDefault:"sqlite"`
	DatabasePath    string        `env:"DATABASE_PATH"    envDefault:"./userdir.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"        envDefault:"1h"`
	BcryptCost      int           `env:"BCRYPT_COST"      envDefault:"10"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	LogPretty       bool          `env:"LOG_PRETTY"       envDefault:"true"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Activity log retention. Zero keeps events forever.
	EventRetention     time.Duration `env:"EVENT_RETENTION"      envDefault:"720h"`
	EventPruneSchedule string        `env:"EVENT_PRUNE_SCHEDULE" envDefault:"@daily"`

	// Host stats sampling. Zero disables the sampler.
	StatsInterval     time.Duration `env:"STATS_INTERVAL"      envDefault:"15s"`
	CPUAlertThreshold float64       `env:"CPU_ALERT_THRESHOLD" envDefault:"90"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DataSource returns the DSN or file path for the configured driver.
func (c *Config) DataSource() string {
	if c.DatabaseDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DatabasePath
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid PORT %d", c.ServerPort)
	}
	if c.EventRetention < 0 || c.StatsInterval < 0 {
		return errors.New("EVENT_RETENTION and STATS_INTERVAL must not be negative")
	}
	if c.EventRetention > 0 && c.EventPruneSchedule == "" {
		return errors.New("EVENT_PRUNE_SCHEDULE is required when EVENT_RETENTION is set")
	}
	return nil
}
