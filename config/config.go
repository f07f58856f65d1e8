// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"tablehub.db"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	ProcessorInterval     time.Duration `env:"PROCESSOR_INTERVAL" envDefault:"2s"`
	ProcessorBatchSize    int           `env:"PROCESSOR_BATCH_SIZE" envDefault:"10"`
	ProcessorEventTimeout time.Duration `env:"PROCESSOR_EVENT_TIMEOUT" envDefault:"10s"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"tablehub.events"`

	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	SeedTimedTables int    `env:"SEED_TIMED_TABLES" envDefault:"0"`
	SeedFlatTables  int    `env:"SEED_FLAT_TABLES" envDefault:"0"`
	SeedFreeTables  int    `env:"SEED_FREE_TABLES" envDefault:"0"`
	SeedAdminCode   string `env:"SEED_ADMIN_CODE"`
}

// Load reads an optional .env file and parses the environment. The returned
// bool reports whether a .env file was loaded.
func Load(files ...string) (*Config, bool, error) {
	loaded := godotenv.Load(files...) == nil

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, loaded, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return cfg, loaded, nil
}

func (c *Config) Validate() error {
	var problems []error
	if c.JWTSecret == "" {
		problems = append(problems, errors.New("JWT_SECRET is required"))
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "sqlite3" && c.DBDriver != "mysql" {
		problems = append(problems, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
	}
	if c.ProcessorInterval <= 0 {
		problems = append(problems, errors.New("PROCESSOR_INTERVAL must be positive"))
	}
	if c.ProcessorBatchSize <= 0 {
		problems = append(problems, errors.New("PROCESSOR_BATCH_SIZE must be positive"))
	}
	if c.ProcessorEventTimeout <= 0 {
		problems = append(problems, errors.New("PROCESSOR_EVENT_TIMEOUT must be positive"))
	}
	if c.SeedTimedTables < 0 || c.SeedFlatTables < 0 || c.SeedFreeTables < 0 {
		problems = append(problems, errors.New("seed table counts must not be negative"))
	}
	return errors.Join(problems...)
}
