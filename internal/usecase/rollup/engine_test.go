package rollup

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	rollupMock "github.com/muhammadchandra19/price-rollup/internal/domain/rollup/mock"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	seriesMock "github.com/muhammadchandra19/price-rollup/internal/domain/series/mock"
	memseries "github.com/muhammadchandra19/price-rollup/internal/infrastructure/memory/series"
	"github.com/muhammadchandra19/price-rollup/internal/observability"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	pkgErrors "github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minuteMillis = int64(60_000)

var keys = series.NewKeys(series.DefaultPrefix)

// tick appends one minute sample and notifies the engine, like the collector does.
func tick(t *testing.T, store series.Store, engine *Engine, ts int64, value float64) rollup.Report {
	t.Helper()
	require.NoError(t, store.Append(context.Background(), keys.Base(), series.Sample{Timestamp: ts, Value: value}))
	report, err := engine.OnTick(context.Background())
	require.NoError(t, err)
	return report
}

func TestEngine_Cascade(t *testing.T) {
	store := memseries.NewRepository()
	engine := NewEngine(store, keys, logger.NewNop())

	computedAt := map[resolution.Resolution][]int{}
	for i := 1; i <= 60; i++ {
		report := tick(t, store, engine, int64(i)*minuteMillis, float64(100+i))
		for _, res := range report.Results {
			assert.Equal(t, rollup.StatusComputed, res.Status, "tick %d %s", i, res.Resolution)
			computedAt[res.Resolution] = append(computedAt[res.Resolution], i)
		}

		switch i {
		case 5:
			assert.Equal(t, rollup.Counters{Minute: 1, FiveMin: 2, FifteenMin: 1}, engine.Counters())
		case 15:
			assert.Equal(t, rollup.Counters{Minute: 1, FiveMin: 1, FifteenMin: 2}, engine.Counters())
		}
	}

	assert.Equal(t, []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60}, computedAt[resolution.FiveMin])
	assert.Equal(t, []int{15, 30, 45, 60}, computedAt[resolution.FifteenMin])
	assert.Equal(t, []int{60}, computedAt[resolution.Hour])
	assert.Equal(t, rollup.InitialCounters(), engine.Counters())

	hourly, err := store.LastN(context.Background(), "btc:price:1h", 10)
	require.NoError(t, err)
	require.Len(t, hourly, 1)
	assert.Equal(t, int64(3_600_000), hourly[0].Timestamp)
	assert.Equal(t, 160.0, hourly[0].Value)

	hourlyMin, err := store.LastN(context.Background(), "btc:price:1h:min", 10)
	require.NoError(t, err)
	assert.Equal(t, 101.0, hourlyMin[0].Value)
}

func TestEngine_FiveMinuteExample(t *testing.T) {
	store := memseries.NewRepository()
	engine := NewEngine(store, keys, logger.NewNop())

	start := int64(1_700_000_000_000)
	prices := []float64{100, 102, 98, 101, 103}

	var report rollup.Report
	for i, p := range prices {
		report = tick(t, store, engine, start+int64(i)*minuteMillis, p)
	}

	want := rollup.Rollup{
		Resolution: resolution.FiveMin,
		Timestamp:  1_700_000_100_000,
		Close:      103,
		Min:        98,
		Max:        103,
	}
	assert.Equal(t, []rollup.Rollup{want}, report.Computed())

	for name, value := range map[string]float64{
		"btc:price:5min":     103,
		"btc:price:5min:min": 98,
		"btc:price:5min:max": 103,
	} {
		samples, err := store.LastN(context.Background(), name, 5)
		require.NoError(t, err)
		assert.Equal(t, []series.Sample{{Timestamp: want.Timestamp, Value: value}}, samples, name)
	}
}

func TestEngine_OnTick(t *testing.T) {
	ctx := context.Background()
	window := []series.Sample{
		{Timestamp: 60_000, Value: 10},
		{Timestamp: 120_000, Value: 12},
		{Timestamp: 180_000, Value: 8},
		{Timestamp: 240_000, Value: 11},
		{Timestamp: 300_000, Value: 9},
	}
	fiveMin := rollup.Rollup{Resolution: resolution.FiveMin, Timestamp: 300_000, Close: 9, Min: 8, Max: 12}

	testCases := []struct {
		name     string
		counters rollup.Counters
		mockFn   func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher)
		assertFn func(t *testing.T, report rollup.Report, err error)
	}{
		{
			name:     "below threshold touches nothing",
			counters: rollup.Counters{Minute: 2, FiveMin: 1, FifteenMin: 1},
			mockFn:   func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher) {},
			assertFn: func(t *testing.T, report rollup.Report, err error) {
				require.NoError(t, err)
				assert.Empty(t, report.Results)
				assert.Equal(t, rollup.Counters{Minute: 3, FiveMin: 1, FifteenMin: 1}, report.After)
			},
		},
		{
			name:     "full window writes and publishes",
			counters: rollup.Counters{Minute: 5, FiveMin: 1, FifteenMin: 1},
			mockFn: func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher) {
				store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 5).Return(window, nil)
				gomock.InOrder(
					store.EXPECT().Append(gomock.Any(), "btc:price:5min", series.Sample{Timestamp: 300_000, Value: 9}).Return(nil),
					store.EXPECT().Append(gomock.Any(), "btc:price:5min:min", series.Sample{Timestamp: 300_000, Value: 8}).Return(nil),
					store.EXPECT().Append(gomock.Any(), "btc:price:5min:max", series.Sample{Timestamp: 300_000, Value: 12}).Return(nil),
					publisher.EXPECT().Publish(gomock.Any(), fiveMin).Return(nil),
				)
			},
			assertFn: func(t *testing.T, report rollup.Report, err error) {
				require.NoError(t, err)
				assert.Equal(t, []rollup.Rollup{fiveMin}, report.Computed())
				assert.Equal(t, rollup.Counters{Minute: 1, FiveMin: 2, FifteenMin: 1}, report.After)
			},
		},
		{
			name:     "short window writes nothing and still advances",
			counters: rollup.Counters{Minute: 5, FiveMin: 1, FifteenMin: 1},
			mockFn: func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher) {
				store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 5).Return(window[:3], nil)
			},
			assertFn: func(t *testing.T, report rollup.Report, err error) {
				require.NoError(t, err)
				require.Len(t, report.Results, 1)
				assert.Equal(t, rollup.Result{
					Resolution: resolution.FiveMin,
					Status:     rollup.StatusInsufficientData,
					Need:       5,
					Got:        3,
				}, report.Results[0])
				assert.Equal(t, rollup.Counters{Minute: 1, FiveMin: 2, FifteenMin: 1}, report.After)
			},
		},
		{
			name:     "partial write failure is reported per series and not published",
			counters: rollup.Counters{Minute: 5, FiveMin: 1, FifteenMin: 1},
			mockFn: func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher) {
				store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 5).Return(window, nil)
				store.EXPECT().Append(gomock.Any(), "btc:price:5min", gomock.Any()).Return(nil)
				store.EXPECT().Append(gomock.Any(), "btc:price:5min:min", gomock.Any()).
					Return(pkgErrors.NewErrorDetailsWithCause(pkgErrors.StoreWriteError, "btc:price:5min:min", errors.New("timeout")))
				store.EXPECT().Append(gomock.Any(), "btc:price:5min:max", gomock.Any()).Return(errors.New("broken pipe"))
			},
			assertFn: func(t *testing.T, report rollup.Report, err error) {
				require.Error(t, err)
				assert.True(t, pkgErrors.HasCode(err, pkgErrors.StoreWriteError))

				var base *pkgErrors.BaseError
				require.True(t, errors.As(err, &base))
				assert.Equal(t, []string{"btc:price:5min:min", "btc:price:5min:max"}, base.Fields())

				assert.Equal(t, rollup.Counters{Minute: 1, FiveMin: 2, FifteenMin: 1}, report.After)
			},
		},
		{
			name:     "read failure is returned and counters advance",
			counters: rollup.Counters{Minute: 5, FiveMin: 3, FifteenMin: 1},
			mockFn: func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher) {
				readErr := pkgErrors.NewErrorDetailsWithCause(pkgErrors.StoreReadError, "btc:price:minute", errors.New("timeout"))
				store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 5).Return(nil, readErr)
				store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 15).Return(nil, readErr)
			},
			assertFn: func(t *testing.T, report rollup.Report, err error) {
				assert.True(t, pkgErrors.HasCode(err, pkgErrors.StoreReadError))
				assert.Len(t, report.Results, 2)
				assert.Equal(t, rollup.Counters{Minute: 1, FiveMin: 1, FifteenMin: 2}, report.After)
			},
		},
		{
			name:     "publish failure does not fail the tick",
			counters: rollup.Counters{Minute: 5, FiveMin: 1, FifteenMin: 1},
			mockFn: func(store *seriesMock.MockStore, publisher *rollupMock.MockPublisher) {
				store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 5).Return(window, nil)
				store.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
				publisher.EXPECT().Publish(gomock.Any(), fiveMin).Return(errors.New("kafka down"))
			},
			assertFn: func(t *testing.T, report rollup.Report, err error) {
				require.NoError(t, err)
				assert.Len(t, report.Computed(), 1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := seriesMock.NewMockStore(ctrl)
			publisher := rollupMock.NewMockPublisher(ctrl)
			tc.mockFn(store, publisher)

			engine := NewEngine(store, keys, logger.NewNop(),
				WithPublisher(publisher),
				WithCounters(tc.counters),
			)

			report, err := engine.OnTick(ctx)
			assert.Equal(t, tc.counters, report.Before)
			tc.assertFn(t, report, err)
		})
	}
}

func TestEngine_Aggregate_InvalidResolution(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := NewEngine(seriesMock.NewMockStore(ctrl), keys, logger.NewNop())

	for _, r := range []resolution.Resolution{"2min", resolution.Minute, ""} {
		_, err := engine.Aggregate(context.Background(), r)
		assert.True(t, pkgErrors.HasCode(err, pkgErrors.InvalidResolution), "resolution %q", r)
	}
}

func TestEngine_Aggregate_HourAlias(t *testing.T) {
	store := memseries.NewRepository()
	ctx := context.Background()
	for i := int64(0); i < 60; i++ {
		require.NoError(t, store.Append(ctx, keys.Base(), series.Sample{Timestamp: i * minuteMillis, Value: float64(i)}))
	}

	metrics := observability.NewMetrics("test")
	engine := NewEngine(store, keys, logger.NewNop(), WithMetrics(metrics))

	result, err := engine.Aggregate(ctx, "hour")
	require.NoError(t, err)
	assert.Equal(t, resolution.Hour, result.Resolution)
	require.NotNil(t, result.Rollup)
	assert.Equal(t, int64(0), result.Rollup.Timestamp)

	samples, err := store.LastN(ctx, "btc:price:1h", 1)
	require.NoError(t, err)
	assert.Equal(t, []series.Sample{{Timestamp: 0, Value: 59}}, samples)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rollups.WithLabelValues("1h", observability.RollupComputed)))
}

func TestCompute(t *testing.T) {
	samples := []series.Sample{
		{Timestamp: 900_000, Value: 100},
		{Timestamp: 960_000, Value: 102},
		{Timestamp: 1_020_000, Value: 98},
		{Timestamp: 1_080_000, Value: 101},
		{Timestamp: 1_140_000, Value: 103},
	}
	want := rollup.Rollup{Resolution: resolution.FiveMin, Timestamp: 900_000, Close: 103, Min: 98, Max: 103}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]series.Sample(nil), samples...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Compute(shuffled, resolution.FiveMin)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("input is not reordered", func(t *testing.T) {
		in := []series.Sample{{Timestamp: 2, Value: 1}, {Timestamp: 1, Value: 2}}
		_, err := Compute(in, resolution.FiveMin)
		require.NoError(t, err)
		assert.Equal(t, int64(2), in[0].Timestamp)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Compute(nil, resolution.FiveMin)
		assert.Error(t, err)
	})

	t.Run("unknown resolution", func(t *testing.T) {
		_, err := Compute(samples, "weekly")
		assert.True(t, pkgErrors.HasCode(err, pkgErrors.InvalidResolution))
	})
}
