package pkglog

import "context"

// RequestIDKey is the record key that always carries the correlation ID.
const RequestIDKey = "request_id"

type correlationIDContextKey struct{}

// CorrelationID returns the correlation ID bound to ctx and whether one is bound.
func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	cid, ok := ctx.Value(correlationIDContextKey{}).(string)
	if !ok || cid == "" {
		return "", false
	}
	return cid, true
}

// GetCorrelationID returns the correlation ID stored in the context, or an
// empty string outside of a request.
//
// Middleware is expected to set this value early in the request lifecycle so
// it can be attached to logs and propagated to downstream calls.
func GetCorrelationID(ctx context.Context) string {
	cid, _ := CorrelationID(ctx)
	return cid
}

// WithCorrelationID binds a correlation ID for everything derived from the
// returned context. The parent context keeps its own value, so nested scopes
// unwind naturally.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey{}, cid)
}
