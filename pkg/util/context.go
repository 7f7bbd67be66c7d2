package util

import (
	"context"
)

type key string

const (
	tickKey   = key("tick")
	actionKey = key("action")
)

// WithTick returns a context carrying the collector tick sequence number.
func WithTick(ctx context.Context, tick uint64) context.Context {
	return context.WithValue(ctx, tickKey, tick)
}

// GetTick returns the tick sequence number, zero if not present.
func GetTick(ctx context.Context) uint64 {
	tick, _ := ctx.Value(tickKey).(uint64)
	return tick
}

// WithAction returns a context tagged with the operation being performed.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKey, action)
}

// GetAction returns the action tag, empty if not present.
func GetAction(ctx context.Context) string {
	action, _ := ctx.Value(actionKey).(string)
	return action
}
