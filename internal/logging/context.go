package logging

import (
	"context"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	runIDKey     contextKey = "run_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID of ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRunID adds a simulation run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the simulation run ID of ctx, if any
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

func contextFields(ctx context.Context) []interface{} {
	var fields []interface{}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if id := RunID(ctx); id != "" {
		fields = append(fields, "run_id", id)
	}
	return fields
}
