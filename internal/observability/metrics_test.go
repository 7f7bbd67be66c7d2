package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("test")

	m.RecordTick(TickOK)
	m.RecordTick(TickOK)
	m.RecordTick(TickUpstreamError)
	m.RecordRollup("5min", RollupComputed)
	m.RecordStoreError("append")
	m.RecordSample(time.Unix(1_700_000_000, 0), 64000.5)
	m.ObserveUpstream(120 * time.Millisecond)
	m.RecordPublishError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks.WithLabelValues(TickOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks.WithLabelValues(TickUpstreamError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rollups.WithLabelValues("5min", RollupComputed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("append")))
	assert.Equal(t, 64000.5, testutil.ToFloat64(m.LastPrice))
	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(m.LastTick))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordTick(TickOK)
		m.RecordRollup("1h", RollupFailed)
		m.RecordStoreError("last_n")
		m.RecordSample(time.Now(), 1)
		m.ObserveUpstream(time.Second)
		m.RecordPublishError()
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("test")
	m.RecordTick(TickOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_collector_ticks_total{outcome="ok"} 1`)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("dup")
		NewMetrics("dup")
	})
}
