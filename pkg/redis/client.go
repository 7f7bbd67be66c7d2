package redis

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

type client struct {
	logger  logger.Interface
	config  *Config
	cmdable redis.Cmdable
}

// NewClient creates a new Redis client with the provided logger and configuration.
func NewClient(logger logger.Interface, config *Config) Client {
	return &client{
		logger: logger,
		config: config,
	}
}

func (c *client) Connect(ctx context.Context) error {
	if err := c.config.Validate(); err != nil {
		return err
	}

	switch c.config.Mode {
	case Standalone:
		c.cmdable = redis.NewClient(&redis.Options{
			Addr:            c.config.Addrs[0],
			Username:        c.config.Username,
			Password:        c.config.Password,
			DB:              c.config.DB,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
			MinIdleConns:    c.config.MinIdleConns,
			MaxIdleConns:    c.config.MaxIdleConns,
			ConnMaxLifetime: c.config.ConnMaxLifetime,
			ConnMaxIdleTime: c.config.ConnMaxIdleTime,
			PoolTimeout:     c.config.PoolTimeout,
		})
	case Cluster:
		c.cmdable = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           c.config.Addrs,
			Username:        c.config.Username,
			Password:        c.config.Password,
			MaxRetries:      c.config.MaxRetries,
			MinRetryBackoff: c.config.MinRetryBackoff,
			MaxRetryBackoff: c.config.MaxRetryBackoff,
			DialTimeout:     c.config.ConnectTimeout,
			ReadTimeout:     c.config.ConnectTimeout,
			WriteTimeout:    c.config.ConnectTimeout,
			PoolSize:        c.config.PoolSize,
			MinIdleConns:    c.config.MinIdleConns,
			MaxIdleConns:    c.config.MaxIdleConns,
			ConnMaxLifetime: c.config.ConnMaxLifetime,
			ConnMaxIdleTime: c.config.ConnMaxIdleTime,
			PoolTimeout:     c.config.PoolTimeout,
		})
	}

	if err := c.cmdable.Ping(ctx).Err(); err != nil {
		return errors.NewErrorDetailsWithCause(errors.RedisConnectionError, "connect", err)
	}

	return nil
}

// Reconnect retries Connect with exponential backoff and jitter. It reports
// whether a connection was established.
func (c *client) Reconnect(ctx context.Context) bool {
	baseDelay := c.config.MinRetryBackoff
	maxDelay := c.config.MaxRetryBackoff

	for i := range c.config.ReconnectMaxRetries {
		backoff := min(baseDelay*time.Duration(math.Pow(2, float64(i))), maxDelay)

		jitter := time.Duration(rand.IntN(1000)) * time.Millisecond
		totalDelay := backoff + jitter

		c.logger.Info("Reconnecting to Redis", logger.Field{
			Key:   "attempt",
			Value: i + 1,
		}, logger.Field{
			Key:   "delay",
			Value: totalDelay.String(),
		})

		select {
		case <-ctx.Done():
			c.logger.Info("Reconnect cancelled", logger.Field{
				Key:   "reason",
				Value: ctx.Err().Error(),
			})
			return false
		case <-time.After(totalDelay):
			connectCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
			err := c.Connect(connectCtx)
			cancel()
			if err == nil {
				c.logger.Info("Reconnected to Redis successfully", logger.Field{
					Key:   "attempt",
					Value: i + 1,
				})
				return true
			}
			c.logger.Error(errors.TracerFromError(err), logger.Field{
				Key:   "attempt",
				Value: i + 1,
			})
		}
	}

	return false
}

func (c *client) Disconnect(ctx context.Context) error {
	switch cmd := c.cmdable.(type) {
	case *redis.Client:
		return cmd.Close()
	case *redis.ClusterClient:
		return cmd.Close()
	case nil:
		return nil
	default:
		return errors.NewErrorDetails("Unsupported Redis mode for disconnect", errors.RedisDisconnectionError.String(), "disconnect")
	}
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.cmdable.Ping(ctx).Err(); err != nil {
		return errors.NewErrorDetailsWithCause(errors.RedisPingError, "ping", err)
	}
	return nil
}

func (c *client) Exists(ctx context.Context, keys ...string) (int64, error) {
	found, err := c.cmdable.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause(errors.RedisExistsError, "exists", err)
	}
	return found, nil
}

func (c *client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	// keys of one prefix may live on different cluster slots
	if cluster, ok := c.cmdable.(*redis.ClusterClient); ok {
		var deleted int64
		for _, key := range keys {
			n, err := cluster.Del(ctx, key).Result()
			if err != nil {
				return deleted, errors.NewErrorDetailsWithCause(errors.RedisDelError, key, err)
			}
			deleted += n
		}
		return deleted, nil
	}

	deleted, err := c.cmdable.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause(errors.RedisDelError, "del", err)
	}
	return deleted, nil
}

// Keys lists keys matching pattern using SCAN, on every master in cluster mode.
func (c *client) Keys(ctx context.Context, pattern string) ([]string, error) {
	if cluster, ok := c.cmdable.(*redis.ClusterClient); ok {
		var (
			mu   sync.Mutex
			keys []string
		)
		err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			found, err := scanKeys(ctx, node, pattern)
			if err != nil {
				return err
			}
			mu.Lock()
			keys = append(keys, found...)
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, errors.NewErrorDetailsWithCause(errors.RedisScanError, pattern, err)
		}
		return keys, nil
	}

	keys, err := scanKeys(ctx, c.cmdable, pattern)
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause(errors.RedisScanError, pattern, err)
	}
	return keys, nil
}

func scanKeys(ctx context.Context, cmdable redis.Cmdable, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := cmdable.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (c *client) TSCreate(ctx context.Context, key string, options *redis.TSOptions) error {
	if err := c.cmdable.TSCreateWithArgs(ctx, key, options).Err(); err != nil {
		return errors.NewErrorDetailsWithCause(errors.RedisTSCreateError, key, err)
	}
	return nil
}

func (c *client) TSAdd(ctx context.Context, key string, timestamp int64, value float64, options *redis.TSOptions) (int64, error) {
	ts, err := c.cmdable.TSAddWithArgs(ctx, key, timestamp, value, options).Result()
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause(errors.RedisTSAddError, key, err)
	}
	return ts, nil
}

// TSRevRange returns up to count samples of key, newest first.
func (c *client) TSRevRange(ctx context.Context, key string, count int) ([]redis.TSTimestampValue, error) {
	samples, err := c.cmdable.TSRevRangeWithArgs(ctx, key, 0, math.MaxInt64, &redis.TSRevRangeOptions{
		Count: count,
	}).Result()
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause(errors.RedisTSRangeError, key, err)
	}
	return samples, nil
}
