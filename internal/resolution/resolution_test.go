package resolution

import (
	"math/rand"
	"testing"
	"time"

	"github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Resolution
		wantErr bool
	}{
		{name: "minute", input: "minute", want: Minute},
		{name: "five minutes", input: "5min", want: FiveMin},
		{name: "fifteen minutes", input: "15min", want: FifteenMin},
		{name: "hour canonical", input: "1h", want: Hour},
		{name: "hour legacy alias", input: "hour", want: Hour},
		{name: "case and spaces", input: " Hour ", want: Hour},
		{name: "unknown", input: "1d", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				assert.True(t, errors.ErrorCodeEquals(err, errors.InvalidResolution.String()))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCatalog(t *testing.T) {
	testCases := []struct {
		resolution Resolution
		interval   int64
		samples    int
		retention  time.Duration
	}{
		{resolution: FiveMin, interval: 300_000, samples: 5, retention: 2 * time.Hour},
		{resolution: FifteenMin, interval: 900_000, samples: 15, retention: 2 * time.Hour},
		{resolution: Hour, interval: 3_600_000, samples: 60, retention: 24 * time.Hour},
		{resolution: "hour", interval: 3_600_000, samples: 60, retention: 24 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.resolution.String(), func(t *testing.T) {
			interval, err := IntervalMillis(tc.resolution)
			require.NoError(t, err)
			assert.Equal(t, tc.interval, interval)

			samples, err := SampleCount(tc.resolution)
			require.NoError(t, err)
			assert.Equal(t, tc.samples, samples)

			level, err := Lookup(tc.resolution)
			require.NoError(t, err)
			assert.Equal(t, tc.retention, level.Retention)
		})
	}

	interval, err := IntervalMillis(Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(60_000), interval)

	_, err = SampleCount(Minute)
	assert.True(t, errors.ErrorCodeEquals(err, errors.InvalidResolution.String()))

	_, err = IntervalMillis("2h")
	assert.True(t, errors.ErrorCodeEquals(err, errors.InvalidResolution.String()))
}

func TestAlign(t *testing.T) {
	// 2024-01-01 12:34:56.789 UTC
	ts := time.Date(2024, 1, 1, 12, 34, 56, 789_000_000, time.UTC).UnixMilli()

	testCases := []struct {
		resolution Resolution
		want       time.Time
	}{
		{resolution: Minute, want: time.Date(2024, 1, 1, 12, 34, 0, 0, time.UTC)},
		{resolution: FiveMin, want: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)},
		{resolution: FifteenMin, want: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)},
		{resolution: Hour, want: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.resolution.String(), func(t *testing.T) {
			got, err := Align(ts, tc.resolution)
			require.NoError(t, err)
			assert.Equal(t, tc.want.UnixMilli(), got)
		})
	}

	_, err := Align(ts, "weekly")
	assert.Error(t, err)
}

func TestAlign_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	samples := []int64{0, 1, 59_999, 60_000, -1, -60_001}
	for range 500 {
		samples = append(samples, rng.Int63n(4_000_000_000_000)-1_000_000_000_000)
	}

	for _, level := range AllLevels {
		interval := level.Interval.Milliseconds()
		for _, ts := range samples {
			aligned, err := Align(ts, level.Resolution)
			require.NoError(t, err)

			assert.LessOrEqual(t, aligned, ts)
			assert.Greater(t, aligned+interval, ts)
			assert.Zero(t, aligned%interval)

			again, err := Align(aligned, level.Resolution)
			require.NoError(t, err)
			assert.Equal(t, aligned, again)
		}
	}
}

func TestResolution_IsRollup(t *testing.T) {
	assert.False(t, Minute.IsRollup())
	assert.True(t, FiveMin.IsRollup())
	assert.True(t, Resolution("hour").IsRollup())
	assert.False(t, Resolution("nope").IsRollup())
	assert.Equal(t, []string{"minute", "5min", "15min", "1h"}, Names())
}
