package config

import (
	"fmt"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/internal/infrastructure/coinmarketcap"
	kafkarollup "github.com/muhammadchandra19/price-rollup/internal/infrastructure/kafka/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/usecase/collector"
	pkgconfig "github.com/muhammadchandra19/price-rollup/pkg/config"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/postgresql"
	"github.com/muhammadchandra19/price-rollup/pkg/redis"
)

// Series backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config represents the application configuration.
type Config struct {
	App         AppConfig            `envPrefix:"APP_"`
	Store       StoreConfig          `envPrefix:"STORE_"`
	Redis       redis.Config         `envPrefix:"REDIS_"`
	Postgres    postgresql.Config    `envPrefix:"POSTGRES_"`
	Price       coinmarketcap.Config `envPrefix:"PRICE_"`
	Collector   collector.Options    `envPrefix:"COLLECTOR_"`
	RollupKafka kafkarollup.Config   `envPrefix:"ROLLUP_KAFKA_"`
}

// AppConfig represents the process configuration.
type AppConfig struct {
	Name             string        `env:"NAME" envDefault:"price-rollup"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"price_rollup"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Log              logger.Config
}

// StoreConfig selects and tunes the series backend.
type StoreConfig struct {
	Backend      string        `env:"BACKEND" envDefault:"redis"`
	Prefix       string        `env:"PREFIX" envDefault:"btc:price"`
	ResetOnStart bool          `env:"RESET_ON_START" envDefault:"false"`
	OpTimeout    time.Duration `env:"OP_TIMEOUT" envDefault:"5s"`
	// AutoMigrate applies pending PostgreSQL migrations before series setup.
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Load loads the configuration from the environment and an optional .env file.
func Load(files ...string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](files...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings shared by every command. Upstream settings
// are checked by the collector only.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendRedis, BackendPostgres, BackendMemory:
	default:
		return errors.NewErrorDetails(
			fmt.Sprintf("unknown store backend %q", c.Store.Backend),
			errors.GeneralBadRequestError.String(), "STORE_BACKEND")
	}
	if c.Store.Prefix == "" {
		return errors.NewErrorDetails("series prefix is required", errors.GeneralBadRequestError.String(), "STORE_PREFIX")
	}
	if c.Store.OpTimeout <= 0 {
		return errors.NewErrorDetails("op timeout must be positive", errors.GeneralBadRequestError.String(), "STORE_OP_TIMEOUT")
	}
	if c.Collector.Interval <= 0 {
		return errors.NewErrorDetails("interval must be positive", errors.GeneralBadRequestError.String(), "COLLECTOR_INTERVAL")
	}
	return nil
}

// Keys returns the series naming of the configured prefix.
func (c *Config) Keys() series.Keys {
	return series.NewKeys(c.Store.Prefix)
}
