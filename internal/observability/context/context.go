package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type triggerKey struct{}

// WithRequestID stores the inbound request identifier.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// WithTrigger records what kicked off the current unit of work (http, scheduler, intake).
func WithTrigger(ctx context.Context, trigger string) context.Context {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return ctx
	}
	return context.WithValue(ctx, triggerKey{}, trigger)
}

func TriggerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(triggerKey{}).(string); ok {
		return value
	}
	return ""
}
