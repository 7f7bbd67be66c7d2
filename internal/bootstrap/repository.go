package bootstrap

import (
	"context"

	"github.com/muhammadchandra19/price-rollup/internal/config"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	memseries "github.com/muhammadchandra19/price-rollup/internal/infrastructure/memory/series"
	pgseries "github.com/muhammadchandra19/price-rollup/internal/infrastructure/postgresql/series"
	redisseries "github.com/muhammadchandra19/price-rollup/internal/infrastructure/redis/series"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/migration"
	"github.com/muhammadchandra19/price-rollup/pkg/postgresql"
	"github.com/muhammadchandra19/price-rollup/pkg/redis"
)

// Repository holds the collector's repositories.
type Repository struct {
	Series series.Repository
}

func (b *Bootstrap) registerRepository(repo series.Repository) {
	b.Repository.Series = repo
}

// OpenSeries connects the configured backend. The returned close func
// releases its connections.
func OpenSeries(ctx context.Context, cfg *config.Config, log logger.Interface) (series.Repository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		return openRedis(ctx, cfg, log)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, log)
	case config.BackendMemory:
		log.Warn("Using in-memory series store, samples are lost on exit")
		return memseries.NewRepository(), func() {}, nil
	default:
		return nil, nil, errors.NewErrorDetails("unknown store backend", errors.StoreInitError.String(), cfg.Store.Backend)
	}
}

func openRedis(ctx context.Context, cfg *config.Config, log logger.Interface) (series.Repository, func(), error) {
	client := redis.NewClient(log, &cfg.Redis)
	if err := client.Connect(ctx); err != nil {
		log.Error(errors.TracerFromError(err), logger.Field{Key: "action", Value: "connect_redis"})
		if !client.Reconnect(ctx) {
			return nil, nil, errors.NewErrorDetailsWithCause(errors.StoreInitError, "redis", err)
		}
	}

	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
		}
	}
	return redisseries.NewRepository(client, log, cfg.Store.OpTimeout), closeFn, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log logger.Interface) (series.Repository, func(), error) {
	client, err := postgresql.NewClient(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, errors.NewErrorDetailsWithCause(errors.StoreInitError, "postgres", err)
	}

	if cfg.Store.AutoMigrate {
		if err := NewMigrationRunner(client, log).MigrateUp(ctx, 0); err != nil {
			client.Close()
			return nil, nil, errors.NewErrorDetailsWithCause(errors.StoreInitError, "postgres", err)
		}
	}

	return pgseries.NewRepository(client, log, cfg.Store.OpTimeout), client.Close, nil
}

// NewMigrationRunner returns the runner of the series schema migrations.
func NewMigrationRunner(client postgresql.PostgreSQLClient, log logger.Interface) *migration.Runner {
	return migration.NewRunner(client, log, pgseries.Migrations(), migration.Config{})
}

// PrepareSeries checks the store is reachable, optionally deletes every
// series under the prefix, then creates the missing ones. Any failure here
// is fatal to the collector.
func PrepareSeries(ctx context.Context, admin series.Admin, keys series.Keys, resetOnStart bool, log logger.Interface) error {
	if err := admin.Ping(ctx); err != nil {
		return errors.NewErrorDetailsWithCause(errors.StoreInitError, "ping", err)
	}

	if resetOnStart {
		deleted, err := admin.Purge(ctx, keys.Prefix()+":")
		if err != nil {
			return errors.TracerFromError(err)
		}
		log.InfoContext(ctx, "Removed existing series",
			logger.Field{Key: "prefix", Value: keys.Prefix()},
			logger.Field{Key: "deleted", Value: deleted},
		)
	}

	created, err := admin.Ensure(ctx, keys.Definitions())
	if err != nil {
		return errors.TracerFromError(err)
	}
	log.InfoContext(ctx, "Series ready",
		logger.Field{Key: "created", Value: len(created)},
		logger.Field{Key: "total", Value: len(keys.Definitions())},
	)
	return nil
}
