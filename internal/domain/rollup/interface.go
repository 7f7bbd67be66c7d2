package rollup

import (
	"context"

	"github.com/muhammadchandra19/price-rollup/internal/resolution"
)

//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock

// Publisher announces rollups that were fully persisted.
type Publisher interface {
	Publish(ctx context.Context, r Rollup) error
	Close() error
}

// Usecase is the aggregation engine driven once per collected sample.
type Usecase interface {
	// OnTick advances the cascade after a minute sample was appended.
	OnTick(ctx context.Context) (Report, error)
	// Aggregate computes and writes the rollup of r from the minute series.
	Aggregate(ctx context.Context, r resolution.Resolution) (Result, error)
	Counters() Counters
}
