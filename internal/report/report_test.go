package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	seriesMock "github.com/muhammadchandra19/price-rollup/internal/domain/series/mock"
	memseries "github.com/muhammadchandra19/price-rollup/internal/infrastructure/memory/series"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = series.NewKeys(series.DefaultPrefix)

func newTestViewer(store series.Store, out *bytes.Buffer, now time.Time) *Viewer {
	v := NewViewer(store, keys, out, time.UTC)
	v.now = func() time.Time { return now }
	return v
}

func TestFormatUSD(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "64123.456", want: "$64,123.46"},
		{in: "98", want: "$98.00"},
		{in: "0.5", want: "$0.50"},
		{in: "-12.345", want: "-$12.35"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatUSD(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestFormatTable(t *testing.T) {
	assert.Equal(t, "No data available", FormatTable(nil, time.UTC))

	got := FormatTable([]series.Sample{
		{Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), Value: 64000},
		{Timestamp: time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC).UnixMilli(), Value: 64100.25},
	}, time.UTC)

	assert.Equal(t, "Timestamp                 | Price (USD)\n"+
		"----------------------------------------\n"+
		"2024-03-01 12:00:00 | $64,000.00\n"+
		"2024-03-01 12:05:00 | $64,100.25", got)
}

func TestFormatStats(t *testing.T) {
	stats := Stats{
		Min:      decimal.NewFromInt(98),
		Max:      decimal.NewFromInt(103),
		Close:    decimal.NewFromInt(103),
		HasClose: true,
	}
	assert.Equal(t, "Last Period Statistics:\n"+
		"Min Price: $98.00\n"+
		"Max Price: $103.00\n"+
		"Close Price: $103.00\n"+
		"Price Range: $5.00 (5.10%)\n", FormatStats(stats))

	noClose := Stats{Min: decimal.Zero, Max: decimal.NewFromInt(1)}
	assert.Equal(t, "Last Period Statistics:\n"+
		"Min Price: $0.00\n"+
		"Max Price: $1.00\n", FormatStats(noClose))

	_, ok := noClose.RangePercent()
	assert.False(t, ok)
}

func TestDefaultCount(t *testing.T) {
	assert.Equal(t, 60, DefaultCount(resolution.Minute))
	assert.Equal(t, 12, DefaultCount(resolution.FiveMin))
	assert.Equal(t, 4, DefaultCount(resolution.FifteenMin))
	assert.Equal(t, 24, DefaultCount("hour"))
	assert.Equal(t, 24, DefaultCount(resolution.Hour))
}

func TestViewer_Show(t *testing.T) {
	ctx := context.Background()
	period := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := period.UnixMilli()

	store := memseries.NewRepository()
	require.NoError(t, store.Append(ctx, "btc:price:5min", series.Sample{Timestamp: ts, Value: 103}))
	require.NoError(t, store.Append(ctx, "btc:price:5min:min", series.Sample{Timestamp: ts, Value: 98}))
	require.NoError(t, store.Append(ctx, "btc:price:5min:max", series.Sample{Timestamp: ts, Value: 103}))

	var out bytes.Buffer
	v := newTestViewer(store, &out, period.Add(3*time.Minute))
	require.NoError(t, v.Show(ctx, resolution.FiveMin, 0))

	assert.Equal(t, "\n5MIN Resolution Data:\n"+
		"--------------------------------------------------\n"+
		"Timestamp                 | Price (USD)\n"+
		"----------------------------------------\n"+
		"2024-03-01 12:00:00 | $103.00\n"+
		"Latest sample 3 minutes ago\n"+
		"\n"+
		"Last Period Statistics:\n"+
		"Min Price: $98.00\n"+
		"Max Price: $103.00\n"+
		"Close Price: $103.00\n"+
		"Price Range: $5.00 (5.10%)\n", out.String())
}

func TestViewer_Show_Empty(t *testing.T) {
	var out bytes.Buffer
	v := newTestViewer(memseries.NewRepository(), &out, time.Now())

	require.NoError(t, v.Show(context.Background(), "hour", 0))
	assert.Equal(t, "\n1H Resolution Data:\n"+
		"--------------------------------------------------\n"+
		"No data available\n", out.String())
}

func TestViewer_Show_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := seriesMock.NewMockStore(ctrl)
	store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 60).Return(nil, errors.New("connection refused"))

	var out bytes.Buffer
	v := newTestViewer(store, &out, time.Now())

	assert.Error(t, v.Show(context.Background(), resolution.Minute, 0))
	assert.Error(t, v.Show(context.Background(), "2min", 0))
	assert.Empty(t, out.String())
}

func TestViewer_ShowAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := seriesMock.NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().LastN(gomock.Any(), "btc:price:minute", 60).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:5min", 12).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:5min:min", 1).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:5min:max", 1).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:15min", 4).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:15min:min", 1).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:15min:max", 1).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:1h", 24).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:1h:min", 1).Return(nil, nil),
		store.EXPECT().LastN(gomock.Any(), "btc:price:1h:max", 1).Return(nil, nil),
	)

	var out bytes.Buffer
	require.NoError(t, newTestViewer(store, &out, time.Now()).ShowAll(context.Background()))
	assert.Equal(t, 4, bytes.Count(out.Bytes(), []byte("No data available")))
}
