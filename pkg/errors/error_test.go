package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	cause := stderrors.New("connection refused")

	testCases := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "plain details",
			err:  NewErrorDetailsWithCause(StoreWriteError, "btc:price:minute", cause),
			code: StoreWriteError,
			want: true,
		},
		{
			name: "details behind tracer",
			err:  TracerFromError(NewErrorDetailsWithCause(StoreReadError, "btc:price:minute", cause)),
			code: StoreReadError,
			want: true,
		},
		{
			name: "details behind fmt wrap",
			err:  fmt.Errorf("tick: %w", NewErrorDetails("bad", UpstreamError.String(), "")),
			code: UpstreamError,
			want: true,
		},
		{
			name: "base error with matching detail",
			err: NewBaseError(
				NewErrorDetailsWithCause(StoreWriteError, "btc:price:5min", cause),
				NewErrorDetailsWithCause(StoreWriteError, "btc:price:5min:max", cause),
			),
			code: StoreWriteError,
			want: true,
		},
		{
			name: "other code",
			err:  NewErrorDetailsWithCause(StoreWriteError, "btc:price:minute", cause),
			code: InvalidResolution,
			want: false,
		},
		{
			name: "foreign error",
			err:  cause,
			code: StoreWriteError,
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasCode(tc.err, tc.code))
		})
	}
}

func TestErrorCodeEquals(t *testing.T) {
	err := TracerFromError(NewErrorDetails("unknown resolution", InvalidResolution.String(), "resolution"))

	assert.True(t, ErrorCodeEquals(err, InvalidResolution.String()))
	assert.False(t, ErrorCodeEquals(err, UpstreamError.String()))
	assert.False(t, ErrorCodeEquals(stderrors.New("x"), UpstreamError.String()))
}

func TestErrorDetails_Unwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := NewErrorDetailsWithCause(StoreReadError, "btc:price:minute", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store_read_error: timeout", err.Error())
}

func TestBaseError(t *testing.T) {
	base := NewBaseError()
	assert.False(t, base.HasDetails())
	assert.False(t, base.IsAllCodeEqual(StoreWriteError.String()))

	base.AddErrorDetails(
		NewErrorDetails("write failed", StoreWriteError.String(), "btc:price:5min:min"),
		NewErrorDetails("write failed", StoreWriteError.String(), "btc:price:5min:max"),
	)

	assert.True(t, base.HasDetails())
	assert.True(t, base.IsAllCodeEqual(StoreWriteError.String()))
	assert.Equal(t, []string{"btc:price:5min:min", "btc:price:5min:max"}, base.Fields())
	assert.Contains(t, base.Error(), "field: btc:price:5min:max")
}

func TestErrorTracer(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")

	tracer := NewTracer("failed to publish rollup").Wrap(cause)
	assert.Equal(t, "failed to publish rollup: dial tcp: refused", tracer.Error())
	assert.ErrorIs(t, tracer, cause)
	assert.NotNil(t, tracer.StackTrace())

	same := TracerFromError(cause)
	assert.Equal(t, "dial tcp: refused", same.Error())
}
