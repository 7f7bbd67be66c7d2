package replay

import (
	"context"
	"time"

	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
)

// Usecase republishes stored rollups, for consumers that missed events.
type Usecase struct {
	store     series.Store
	keys      series.Keys
	publisher rollup.Publisher
	logger    logger.Interface
}

// NewUsecase creates a replay usecase.
func NewUsecase(store series.Store, keys series.Keys, publisher rollup.Publisher, logger logger.Interface) *Usecase {
	return &Usecase{
		store:     store,
		keys:      keys,
		publisher: publisher,
		logger:    logger,
	}
}

// Stored returns up to n of the newest complete triples of r, oldest first.
// Periods missing their min or max sample are left out.
func (u *Usecase) Stored(ctx context.Context, r resolution.Resolution, n int) ([]rollup.Rollup, error) {
	level, err := resolution.Lookup(r)
	if err != nil {
		return nil, err
	}
	if !level.Resolution.IsRollup() {
		return nil, errors.NewErrorDetails("only rollup resolutions can be replayed", errors.InvalidResolution.String(), "resolution")
	}

	closeKey, minKey, maxKey := u.keys.Triple(level.Resolution)
	closes, err := u.store.LastN(ctx, closeKey, n)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	mins, err := u.store.LastN(ctx, minKey, n)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	maxs, err := u.store.LastN(ctx, maxKey, n)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	minAt := byTimestamp(mins)
	maxAt := byTimestamp(maxs)

	out := make([]rollup.Rollup, 0, len(closes))
	for _, c := range closes {
		lo, okMin := minAt[c.Timestamp]
		hi, okMax := maxAt[c.Timestamp]
		if !okMin || !okMax {
			u.logger.WarnContext(ctx, "Skipping incomplete rollup",
				logger.Field{Key: "resolution", Value: level.Resolution.String()},
				logger.Field{Key: "timestamp", Value: c.Timestamp},
			)
			continue
		}
		out = append(out, rollup.Rollup{
			Resolution: level.Resolution,
			Timestamp:  c.Timestamp,
			Close:      c.Value,
			Min:        lo,
			Max:        hi,
		})
	}
	return out, nil
}

// Replay publishes the stored triples of r, waiting delay between events.
// It returns how many were published.
func (u *Usecase) Replay(ctx context.Context, r resolution.Resolution, n int, delay time.Duration) (int, error) {
	rollups, err := u.Stored(ctx, r, n)
	if err != nil {
		return 0, err
	}

	for i, ro := range rollups {
		if err := u.publisher.Publish(ctx, ro); err != nil {
			return i, err
		}
		if delay > 0 && i < len(rollups)-1 {
			select {
			case <-ctx.Done():
				return i + 1, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return len(rollups), nil
}

func byTimestamp(samples []series.Sample) map[int64]float64 {
	m := make(map[int64]float64, len(samples))
	for _, s := range samples {
		m[s.Timestamp] = s.Value
	}
	return m
}
