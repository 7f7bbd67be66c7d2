package util

import (
	"context"

	"github.com/google/uuid"
)

const requestIDKey = key("x-request-id")

// WithRequestID returns a context with request id. A fresh uuid is
// generated when id is empty, so every collector tick gets its own id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns request id from context, empty if not present.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
