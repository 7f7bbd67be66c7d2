package series

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/redis"
	v9 "github.com/redis/go-redis/v9"
)

const (
	duplicatePolicy = "LAST"
	encoding        = "UNCOMPRESSED"
)

// Repository stores series in RedisTimeSeries.
type Repository struct {
	client    redis.Client
	logger    logger.Interface
	opTimeout time.Duration
}

// NewRepository creates a RedisTimeSeries backed repository. Every command
// is bounded by opTimeout.
func NewRepository(client redis.Client, logger logger.Interface, opTimeout time.Duration) *Repository {
	return &Repository{
		client:    client,
		logger:    logger,
		opTimeout: opTimeout,
	}
}

var _ series.Repository = (*Repository)(nil)

// Append adds sample with ON_DUPLICATE LAST so a rewrite of the same
// timestamp replaces the stored value.
func (r *Repository) Append(ctx context.Context, name string, sample series.Sample) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	_, err := r.client.TSAdd(ctx, name, sample.Timestamp, sample.Value, &v9.TSOptions{
		DuplicatePolicy: duplicatePolicy,
	})
	if err != nil {
		return errors.NewErrorDetailsWithCause(errors.StoreWriteError, name, err)
	}
	return nil
}

// LastN reads the newest n samples with TS.REVRANGE and returns them oldest first.
func (r *Repository) LastN(ctx context.Context, name string, n int) ([]series.Sample, error) {
	if n <= 0 {
		return []series.Sample{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	values, err := r.client.TSRevRange(ctx, name, n)
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause(errors.StoreReadError, name, err)
	}

	samples := make([]series.Sample, 0, len(values))
	for _, v := range values {
		samples = append(samples, series.Sample{Timestamp: v.Timestamp, Value: v.Value})
	}
	slices.Reverse(samples)

	return samples, nil
}

// Ensure probes every definition with EXISTS and creates the missing ones.
func (r *Repository) Ensure(ctx context.Context, defs []series.Definition) ([]string, error) {
	var created []string
	for _, def := range defs {
		exists, err := r.exists(ctx, def.Name)
		if err != nil {
			return created, errors.NewErrorDetailsWithCause(errors.StoreInitError, def.Name, err)
		}
		if exists {
			continue
		}

		if err := r.create(ctx, def); err != nil {
			return created, errors.NewErrorDetailsWithCause(errors.StoreInitError, def.Name, err)
		}

		r.logger.InfoContext(ctx, "Created series",
			logger.Field{Key: "series", Value: def.Name},
			logger.Field{Key: "retention", Value: def.Retention.String()},
		)
		created = append(created, def.Name)
	}
	return created, nil
}

// Purge deletes every key starting with prefix.
func (r *Repository) Purge(ctx context.Context, prefix string) (int64, error) {
	keys, err := r.client.Keys(ctx, escapeGlob(prefix)+"*")
	if err != nil {
		return 0, errors.NewErrorDetailsWithCause(errors.StoreInitError, prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := r.client.Del(ctx, keys...)
	if err != nil {
		return deleted, errors.NewErrorDetailsWithCause(errors.StoreInitError, prefix, err)
	}
	return deleted, nil
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Repository) exists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	found, err := r.client.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	return found > 0, nil
}

func (r *Repository) create(ctx context.Context, def series.Definition) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	return r.client.TSCreate(ctx, def.Name, &v9.TSOptions{
		Retention:       int(def.Retention.Milliseconds()),
		Encoding:        encoding,
		DuplicatePolicy: duplicatePolicy,
	})
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
