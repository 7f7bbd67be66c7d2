package logger

import (
	"context"
	"testing"

	"github.com/muhammadchandra19/price-rollup/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevel_getZapLevel(t *testing.T) {
	testCases := []struct {
		level Level
		want  zapcore.Level
	}{
		{level: DebugLevel, want: zapcore.DebugLevel},
		{level: InfoLevel, want: zapcore.InfoLevel},
		{level: WarnLevel, want: zapcore.WarnLevel},
		{level: ErrorLevel, want: zapcore.ErrorLevel},
		{level: "DEBUG", want: zapcore.DebugLevel},
		{level: "verbose", want: zapcore.InfoLevel},
		{level: "", want: zapcore.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(string(tc.level), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.level.getZapLevel())
		})
	}
}

func TestAppendContextFields(t *testing.T) {
	ctx := util.WithRequestID(context.Background(), "req-1")

	fields := appendContextFields(ctx, []Field{NewField("series", "btc:price:minute")})
	assert.Equal(t, []Field{
		{Key: "series", Value: "btc:price:minute"},
		{Key: "request_id", Value: "req-1"},
	}, fields)

	fields = appendContextFields(util.WithTick(ctx, 3), nil)
	assert.Equal(t, []Field{
		{Key: "request_id", Value: "req-1"},
		{Key: "tick", Value: uint64(3)},
	}, fields)
}

func TestNewFromConfig(t *testing.T) {
	log, err := NewFromConfig(Config{Level: DebugLevel, Outputs: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, log.logger.Core().Enabled(zapcore.DebugLevel))

	child := log.WithFields(NewField("component", "collector"))
	assert.NotNil(t, child)
}
