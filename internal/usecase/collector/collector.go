package collector

import (
	"context"
	"sync/atomic"

	"github.com/muhammadchandra19/price-rollup/internal/domain/price"
	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/internal/observability"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/muhammadchandra19/price-rollup/pkg/util"
)

// Collector fetches one price per tick, appends it to the minute series and
// hands control to the rollup engine. Ticks run one at a time.
type Collector struct {
	source  price.Source
	store   series.Store
	engine  rollup.Usecase
	keys    series.Keys
	logger  logger.Interface
	metrics *observability.Metrics
	options Options
	clock   Clock

	seq atomic.Uint64
}

// Option customizes a Collector.
type Option func(*Collector)

// WithMetrics records tick outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Collector) {
		c.clock = clock
	}
}

// WithOptions overrides DefaultOptions.
func WithOptions(options Options) Option {
	return func(c *Collector) {
		c.options = options
	}
}

// NewCollector creates a collector.
func NewCollector(
	source price.Source,
	store series.Store,
	engine rollup.Usecase,
	keys series.Keys,
	logger logger.Interface,
	opts ...Option,
) *Collector {
	c := &Collector{
		source:  source,
		store:   store,
		engine:  engine,
		keys:    keys,
		logger:  logger,
		options: DefaultOptions(),
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run collects immediately when configured to, then once per interval until
// ctx is done. A failed tick is logged and the loop goes on.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Collector started",
		logger.Field{Key: "interval", Value: c.options.Interval.String()},
		logger.Field{Key: "aligned", Value: c.options.Align},
	)

	if c.options.CollectOnStart {
		_, _ = c.Tick(ctx)
	}

	for {
		now := c.clock.Now()
		wait := nextFire(now, c.options.Interval, c.options.Align).Sub(now)

		select {
		case <-ctx.Done():
			c.logger.Info("Collector stopped", logger.Field{Key: "ticks", Value: c.seq.Load()})
			return nil
		case <-c.clock.After(wait):
			_, _ = c.Tick(ctx)
		}
	}
}

// Tick runs one collection: fetch, append, aggregate. Nothing is appended
// or aggregated when the price cannot be fetched, and the engine is not
// notified when the append fails.
func (c *Collector) Tick(ctx context.Context) (rollup.Report, error) {
	ctx = util.WithRequestID(ctx, "")
	ctx = util.WithTick(ctx, c.seq.Add(1))

	started := c.clock.Now()
	quote, err := c.source.Latest(ctx)
	c.metrics.ObserveUpstream(c.clock.Now().Sub(started))
	if err != nil {
		c.metrics.RecordTick(observability.TickUpstreamError)
		c.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "fetch_price"})
		return rollup.Report{}, errors.TracerFromError(err)
	}

	at := quote.FetchedAt
	if at.IsZero() {
		at = c.clock.Now()
	}
	sample := series.Sample{Timestamp: at.UnixMilli(), Value: quote.Price}

	if err := c.store.Append(ctx, c.keys.Base(), sample); err != nil {
		c.metrics.RecordStoreError("append")
		c.metrics.RecordTick(observability.TickStoreError)
		c.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "append_sample"},
			logger.Field{Key: "series", Value: c.keys.Base()},
		)
		return rollup.Report{}, errors.TracerFromError(err)
	}
	c.metrics.RecordSample(at, quote.Price)

	c.logger.InfoContext(ctx, "Price collected",
		logger.Field{Key: "symbol", Value: quote.Symbol},
		logger.Field{Key: "price", Value: quote.Price},
		logger.Field{Key: "timestamp", Value: sample.Timestamp},
	)

	report, err := c.engine.OnTick(ctx)
	if err != nil {
		c.metrics.RecordTick(observability.TickStoreError)
		return report, err
	}

	c.metrics.RecordTick(observability.TickOK)
	return report, nil
}
