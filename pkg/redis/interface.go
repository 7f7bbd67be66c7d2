package redis

import (
	"context"

	v9 "github.com/redis/go-redis/v9"
)

// Client defines the interface for a Redis client with RedisTimeSeries support.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=redis_mock
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) bool

	Exists(ctx context.Context, keys ...string) (int64, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)

	TSCreate(ctx context.Context, key string, options *v9.TSOptions) error
	TSAdd(ctx context.Context, key string, timestamp int64, value float64, options *v9.TSOptions) (int64, error)
	TSRevRange(ctx context.Context, key string, count int) ([]v9.TSTimestampValue, error)
}
