package rollup

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	"github.com/muhammadchandra19/price-rollup/internal/observability"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
)

const (
	// minute ticks per 5min rollup
	minutesPerFive = 5
	// 5min rollups per 15min rollup
	fivesPerFifteen = 3
	// 15min rollups per 1h rollup
	fifteensPerHour = 4
)

// Engine is the counter driven rollup cascade. It is notified once per
// appended minute sample and writes the 5min, 15min and 1h triples when
// their counters cross the threshold.
type Engine struct {
	store     series.Store
	keys      series.Keys
	logger    logger.Interface
	publisher rollup.Publisher
	metrics   *observability.Metrics

	mu       sync.Mutex
	counters rollup.Counters
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher announces every fully written rollup through p.
func WithPublisher(p rollup.Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithMetrics records rollup outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCounters starts the cascade from c instead of the initial state.
func WithCounters(c rollup.Counters) Option {
	return func(e *Engine) {
		e.counters = c
	}
}

// NewEngine creates an engine reading the minute series of keys from store.
func NewEngine(store series.Store, keys series.Keys, logger logger.Interface, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		keys:     keys,
		logger:   logger,
		counters: rollup.InitialCounters(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ rollup.Usecase = (*Engine)(nil)

// Counters returns a copy of the cascade state.
func (e *Engine) Counters() rollup.Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters
}

// OnTick advances the cascade by one minute. Counters advance even when an
// attempt is skipped or fails; failures of every attempt are returned together.
func (e *Engine) OnTick(ctx context.Context) (rollup.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := rollup.Report{Before: e.counters}
	e.logger.DebugContext(ctx, "Advancing rollup counters",
		logger.Field{Key: "minute_counter", Value: e.counters.Minute},
		logger.Field{Key: "five_min_counter", Value: e.counters.FiveMin},
		logger.Field{Key: "fifteen_min_counter", Value: e.counters.FifteenMin},
	)

	failures := errors.NewBaseError()
	attempt := func(r resolution.Resolution) {
		result, err := e.Aggregate(ctx, r)
		report.Results = append(report.Results, result)
		if err != nil {
			collectDetails(failures, err)
		}
	}

	e.counters.Minute++
	if e.counters.Minute > minutesPerFive {
		attempt(resolution.FiveMin)
		e.counters.Minute = 1
		e.counters.FiveMin++
	}
	if e.counters.FiveMin > fivesPerFifteen {
		attempt(resolution.FifteenMin)
		e.counters.FiveMin = 1
		e.counters.FifteenMin++
	}
	if e.counters.FifteenMin > fifteensPerHour {
		attempt(resolution.Hour)
		e.counters.FifteenMin = 1
	}

	report.After = e.counters
	if failures.HasDetails() {
		return report, errors.TracerFromError(failures)
	}
	return report, nil
}

// Aggregate computes the rollup of r from the newest minute samples and
// writes its close, min and max series. A short window is reported as
// StatusInsufficientData without writing anything. Writes are not rolled
// back when one of them fails.
func (e *Engine) Aggregate(ctx context.Context, r resolution.Resolution) (rollup.Result, error) {
	level, err := resolution.Lookup(r)
	if err != nil {
		return rollup.Result{Resolution: r}, err
	}
	if !level.Resolution.IsRollup() {
		return rollup.Result{Resolution: r}, errors.NewErrorDetails(
			fmt.Sprintf("%s is not a rollup resolution", r), errors.InvalidResolution.String(), "resolution")
	}

	r = level.Resolution
	result := rollup.Result{Resolution: r, Need: level.Samples}

	samples, err := e.store.LastN(ctx, e.keys.Base(), level.Samples)
	if err != nil {
		e.metrics.RecordStoreError("last_n")
		e.metrics.RecordRollup(r.String(), observability.RollupFailed)
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "read_window"},
			logger.Field{Key: "resolution", Value: r.String()},
		)
		return result, err
	}

	result.Got = len(samples)
	if len(samples) < level.Samples {
		result.Status = rollup.StatusInsufficientData
		e.metrics.RecordRollup(r.String(), observability.RollupInsufficient)
		e.logger.WarnContext(ctx, "Insufficient data for rollup",
			logger.Field{Key: "resolution", Value: r.String()},
			logger.Field{Key: "need", Value: level.Samples},
			logger.Field{Key: "got", Value: len(samples)},
		)
		return result, nil
	}

	computed, err := Compute(samples, r)
	if err != nil {
		return result, err
	}
	result.Status = rollup.StatusComputed
	result.Rollup = &computed

	if err := e.write(ctx, computed); err != nil {
		e.metrics.RecordRollup(r.String(), observability.RollupFailed)
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "write_rollup"},
			logger.Field{Key: "resolution", Value: r.String()},
		)
		return result, err
	}

	e.metrics.RecordRollup(r.String(), observability.RollupComputed)
	e.logger.InfoContext(ctx, "Rollup computed",
		logger.Field{Key: "resolution", Value: r.String()},
		logger.Field{Key: "timestamp", Value: computed.Timestamp},
		logger.Field{Key: "close", Value: computed.Close},
		logger.Field{Key: "min", Value: computed.Min},
		logger.Field{Key: "max", Value: computed.Max},
	)

	e.publish(ctx, computed)
	return result, nil
}

// write appends the triple. Every failed series ends up in the returned BaseError.
func (e *Engine) write(ctx context.Context, r rollup.Rollup) error {
	closeKey, minKey, maxKey := e.keys.Triple(r.Resolution)
	points := []struct {
		name  string
		value float64
	}{
		{closeKey, r.Close},
		{minKey, r.Min},
		{maxKey, r.Max},
	}

	failures := errors.NewBaseError()
	for _, p := range points {
		err := e.store.Append(ctx, p.name, series.Sample{Timestamp: r.Timestamp, Value: p.value})
		if err == nil {
			continue
		}
		e.metrics.RecordStoreError("append")

		var details *errors.ErrorDetails
		if !stderrors.As(err, &details) {
			details = errors.NewErrorDetailsWithCause(errors.StoreWriteError, p.name, err)
		}
		failures.AddErrorDetails(details)
	}

	if failures.HasDetails() {
		return failures
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, r rollup.Rollup) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, r); err != nil {
		e.metrics.RecordPublishError()
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "publish_rollup"},
			logger.Field{Key: "resolution", Value: r.Resolution.String()},
		)
	}
}

// Compute derives the rollup of r from samples. Samples may come in any
// order: close is the value of the latest sample and the timestamp is that
// sample's time aligned to r.
func Compute(samples []series.Sample, r resolution.Resolution) (rollup.Rollup, error) {
	if len(samples) == 0 {
		return rollup.Rollup{}, errors.NewErrorDetails("no samples to aggregate", errors.GeneralBadRequestError.String(), "samples")
	}

	sorted := make([]series.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	last := sorted[len(sorted)-1]
	ts, err := resolution.Align(last.Timestamp, r)
	if err != nil {
		return rollup.Rollup{}, err
	}

	out := rollup.Rollup{
		Resolution: r,
		Timestamp:  ts,
		Close:      last.Value,
		Min:        sorted[0].Value,
		Max:        sorted[0].Value,
	}
	for _, s := range sorted[1:] {
		if s.Value < out.Min {
			out.Min = s.Value
		}
		if s.Value > out.Max {
			out.Max = s.Value
		}
	}
	return out, nil
}

func collectDetails(into *errors.BaseError, err error) {
	var base *errors.BaseError
	if stderrors.As(err, &base) {
		into.AddErrorDetails(base.GetDetails()...)
		return
	}

	var details *errors.ErrorDetails
	if stderrors.As(err, &details) {
		into.AddErrorDetails(details)
		return
	}

	into.AddErrorDetails(errors.NewErrorDetailsWithCause(errors.GeneralInternalServerError, "", err))
}
