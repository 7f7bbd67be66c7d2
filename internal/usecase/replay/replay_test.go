package replay

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/price-rollup/internal/domain/rollup"
	rollupMock "github.com/muhammadchandra19/price-rollup/internal/domain/rollup/mock"
	"github.com/muhammadchandra19/price-rollup/internal/domain/series"
	memseries "github.com/muhammadchandra19/price-rollup/internal/infrastructure/memory/series"
	"github.com/muhammadchandra19/price-rollup/internal/resolution"
	pkgErrors "github.com/muhammadchandra19/price-rollup/pkg/errors"
	"github.com/muhammadchandra19/price-rollup/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = series.NewKeys(series.DefaultPrefix)

func seed(t *testing.T, store series.Store) {
	t.Helper()
	ctx := context.Background()
	write := func(name string, ts int64, v float64) {
		require.NoError(t, store.Append(ctx, name, series.Sample{Timestamp: ts, Value: v}))
	}

	write("btc:price:15min", 900_000, 101)
	write("btc:price:15min:min", 900_000, 99)
	write("btc:price:15min:max", 900_000, 104)

	// the second period has no max
	write("btc:price:15min", 1_800_000, 103)
	write("btc:price:15min:min", 1_800_000, 100)
}

func TestUsecase_Stored(t *testing.T) {
	store := memseries.NewRepository()
	seed(t, store)

	uc := NewUsecase(store, keys, nil, logger.NewNop())
	got, err := uc.Stored(context.Background(), resolution.FifteenMin, 10)
	require.NoError(t, err)
	assert.Equal(t, []rollup.Rollup{
		{Resolution: resolution.FifteenMin, Timestamp: 900_000, Close: 101, Min: 99, Max: 104},
	}, got)

	_, err = uc.Stored(context.Background(), resolution.Minute, 10)
	assert.True(t, pkgErrors.HasCode(err, pkgErrors.InvalidResolution))
}

func TestUsecase_Replay(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(publisher *rollupMock.MockPublisher)
		assertFn func(t *testing.T, published int, err error)
	}{
		{
			name: "publishes complete triples",
			mockFn: func(publisher *rollupMock.MockPublisher) {
				publisher.EXPECT().Publish(gomock.Any(), rollup.Rollup{
					Resolution: resolution.FifteenMin, Timestamp: 900_000, Close: 101, Min: 99, Max: 104,
				}).Return(nil)
			},
			assertFn: func(t *testing.T, published int, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, published)
			},
		},
		{
			name: "stops at the first publish failure",
			mockFn: func(publisher *rollupMock.MockPublisher) {
				publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			assertFn: func(t *testing.T, published int, err error) {
				assert.Error(t, err)
				assert.Zero(t, published)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := memseries.NewRepository()
			seed(t, store)

			publisher := rollupMock.NewMockPublisher(ctrl)
			tc.mockFn(publisher)

			uc := NewUsecase(store, keys, publisher, logger.NewNop())
			published, err := uc.Replay(context.Background(), "15min", 10, 0)
			tc.assertFn(t, published, err)
		})
	}
}
