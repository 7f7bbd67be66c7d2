// Package observability provides Prometheus metrics for the collector.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick outcomes.
const (
	TickOK            = "ok"
	TickUpstreamError = "upstream_error"
	TickStoreError    = "store_error"
)

// Rollup outcomes.
const (
	RollupComputed     = "computed"
	RollupInsufficient = "insufficient_data"
	RollupFailed       = "failed"
)

// Metrics holds every collector metric on its own registry. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Ticks           *prometheus.CounterVec
	Rollups         *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	LastPrice       prometheus.Gauge
	LastTick        prometheus.Gauge
	UpstreamLatency prometheus.Histogram
	PublishErrors   prometheus.Counter
}

// NewMetrics creates the metrics under namespace, price_rollup when empty.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "price_rollup"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "ticks_total",
			Help:      "Collection ticks by outcome",
		}, []string{"outcome"}),
		LastTick: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time of the last stored minute sample",
		}),
		LastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "last_price",
			Help:      "Last price fetched from upstream",
		}),
		UpstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of price requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		Rollups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "rollups_total",
			Help:      "Rollup attempts by resolution and outcome",
		}, []string{"resolution", "outcome"}),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "publish_errors_total",
			Help:      "Rollup events that could not be published",
		}),

		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Series store failures by operation",
		}, []string{"op"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordTick(outcome string) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(outcome).Inc()
}

// RecordSample marks a successful minute append.
func (m *Metrics) RecordSample(at time.Time, price float64) {
	if m == nil {
		return
	}
	m.LastPrice.Set(price)
	m.LastTick.Set(float64(at.Unix()))
}

func (m *Metrics) ObserveUpstream(d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamLatency.Observe(d.Seconds())
}

func (m *Metrics) RecordRollup(resolution, outcome string) {
	if m == nil {
		return
	}
	m.Rollups.WithLabelValues(resolution, outcome).Inc()
}

func (m *Metrics) RecordStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordPublishError() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}
