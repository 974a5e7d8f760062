// Package context carries request-scoped observability values across API
// and service boundaries.
package context

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID attaches the request id; blank ids are ignored.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the attached request id or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
