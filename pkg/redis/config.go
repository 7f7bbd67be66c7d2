package redis

import (
	"time"

	"github.com/muhammadchandra19/price-rollup/pkg/errors"
)

// Mode represents the mode of the Redis client.
type Mode string

const (
	// Standalone Mode is for a single Redis instance.
	Standalone Mode = "standalone"
	// Cluster Mode is for a Redis cluster setup.
	Cluster Mode = "cluster"
)

// Config holds the configuration for the Redis client.
type Config struct {
	Mode     Mode   `env:"MODE" envDefault:"standalone"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`

	Addrs []string `env:"ADDRS" envDefault:"localhost:6379"`

	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"-1"`
	MinRetryBackoff time.Duration `env:"MIN_RETRY_BACKOFF" envDefault:"100ms"`
	MaxRetryBackoff time.Duration `env:"MAX_RETRY_BACKOFF" envDefault:"2s"`
	PoolSize        int           `env:"POOL_SIZE" envDefault:"4"`
	MinIdleConns    int           `env:"MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"4"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"10m"`
	PoolTimeout     time.Duration `env:"POOL_TIMEOUT" envDefault:"4s"`

	ReconnectMaxRetries int `env:"RECONNECT_MAX_RETRIES" envDefault:"3"`
}

// DefaultConfig returns a default configuration for the Redis client.
// MaxRetries of -1 disables command retries in go-redis; a failed sample write
// is reported, not replayed.
func DefaultConfig() *Config {
	return &Config{
		Mode:                Standalone,
		Addrs:               []string{"localhost:6379"},
		ConnectTimeout:      5 * time.Second,
		MaxRetries:          -1,
		MinRetryBackoff:     100 * time.Millisecond,
		MaxRetryBackoff:     2 * time.Second,
		PoolSize:            4,
		MinIdleConns:        1,
		MaxIdleConns:        4,
		ConnMaxLifetime:     30 * time.Minute,
		ConnMaxIdleTime:     10 * time.Minute,
		PoolTimeout:         4 * time.Second,
		ReconnectMaxRetries: 3,
	}
}

// Validate checks the configuration before a connection is attempted.
func (c *Config) Validate() error {
	if c == nil {
		return configError("Redis config is nil")
	}

	if len(c.Addrs) == 0 {
		return configError("Redis addresses are empty")
	}

	if c.Mode != Standalone && c.Mode != Cluster {
		return configError("Invalid Redis mode")
	}

	if c.ConnectTimeout <= 0 {
		return configError("Invalid Redis connect timeout")
	}

	if c.PoolSize <= 0 {
		return configError("Invalid Redis pool size")
	}

	if c.MaxIdleConns < 0 {
		return configError("Invalid Redis max idle connections")
	}

	if c.ConnMaxLifetime <= 0 {
		return configError("Invalid Redis connection max lifetime")
	}

	if c.ConnMaxIdleTime <= 0 {
		return configError("Invalid Redis connection max idle time")
	}

	if c.PoolTimeout <= 0 {
		return configError("Invalid Redis pool timeout")
	}

	if c.MaxRetries < -1 {
		return configError("Invalid Redis max retries")
	}

	if c.MinRetryBackoff < 0 || c.MaxRetryBackoff < 0 {
		return configError("Invalid Redis retry backoff")
	}

	return nil
}

func configError(message string) error {
	return errors.NewErrorDetails(message, errors.RedisConfigError.String(), "connect")
}
