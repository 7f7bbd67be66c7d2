package series

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/postgresql"
)

const (
	// appendSQL upserts the sample and evicts everything older than the
	// retention window measured from the newest sample. Both statements see
	// the same snapshot, so the new timestamp is folded in with GREATEST.
	appendSQL = `WITH upserted AS (
	INSERT INTO series_samples (series, ts, value) VALUES ($1, $2, $3)
	ON CONFLICT (series, ts) DO UPDATE SET value = EXCLUDED.value
	RETURNING series, ts
)
DELETE FROM series_samples s
USING upserted u, series_definitions d
WHERE s.series = u.series
	AND d.name = u.series
	AND d.retention_ms > 0
	AND s.ts < GREATEST(u.ts, (SELECT MAX(ts) FROM series_samples WHERE series = u.series)) - d.retention_ms`

	lastNSQL = `SELECT ts, value FROM series_samples WHERE series = $1 ORDER BY ts DESC LIMIT $2`

	ensureSQL = `INSERT INTO series_definitions (name, retention_ms) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`

	purgeSQL = `WITH dropped_samples AS (
	DELETE FROM series_samples WHERE series LIKE $1 ESCAPE '\'
), dropped AS (
	DELETE FROM series_definitions WHERE name LIKE $1 ESCAPE '\' RETURNING name
)
SELECT COUNT(*) FROM dropped`
)

// Repository keeps series in two plain tables: definitions carrying the
// retention, and samples keyed by (series, ts).
type Repository struct {
	db        postgresql.PostgreSQLClient
	logger    logger.Interface
	opTimeout time.Duration
}

// NewRepository creates a PostgreSQL backed series repository.
func NewRepository(db postgresql.PostgreSQLClient, logger logger.Interface, opTimeout time.Duration) *Repository {
	return &Repository{
		db:        db,
		logger:    logger,
		opTimeout: opTimeout,
	}
}

var _ series.Repository = (*Repository)(nil)

func (r *Repository) Append(ctx context.Context, name string, sample series.Sample) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, appendSQL, name, sample.Timestamp, sample.Value); err != nil {
		return errors.NewErrorDetailsWithCause(errors.StoreWriteError, name, err)
	}
	return nil
}

func (r *Repository) LastN(ctx context.Context, name string, n int) ([]series.Sample, error) {
	if n <= 0 {
		return []series.Sample{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, lastNSQL, name, n)
	if err != nil {
		return nil, errors.NewErrorDetailsWithCause(errors.StoreReadError, name, err)
	}
	defer rows.Close()

	samples := make([]series.Sample, 0, n)
	for rows.Next() {
		var s series.Sample
		if err := rows.Scan(&s.Timestamp, &s.Value); err != nil {
			return nil, errors.NewErrorDetailsWithCause(errors.StoreReadError, name, err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewErrorDetailsWithCause(errors.StoreReadError, name, err)
	}

	slices.Reverse(samples)
	return samples, nil
}

// Ensure registers missing definitions. An existing definition keeps its
// stored retention.
func (r *Repository) Ensure(ctx context.Context, defs []series.Definition) ([]string, error) {
	var created []string
	for _, def := range defs {
		tag, err := r.exec(ctx, ensureSQL, def.Name, def.Retention.Milliseconds())
		if err != nil {
			return created, errors.NewErrorDetailsWithCause(errors.StoreInitError, def.Name, err)
		}
		if tag == 0 {
			continue
		}

		r.logger.InfoContext(ctx, "Created series",
			logger.Field{Key: "series", Value: def.Name},
			logger.Field{Key: "retention", Value: def.Retention.String()},
		)
		created = append(created, def.Name)
	}
	return created, nil
}

// Purge drops every series whose name starts with prefix and returns the
// number of definitions removed.
func (r *Repository) Purge(ctx context.Context, prefix string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	var deleted int64
	if err := r.db.QueryRow(ctx, purgeSQL, likePrefix(prefix)).Scan(&deleted); err != nil {
		return 0, errors.NewErrorDetailsWithCause(errors.StoreInitError, prefix, err)
	}
	return deleted, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	return r.db.Ping(ctx)
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeReplacer.Replace(prefix) + "%"
}
