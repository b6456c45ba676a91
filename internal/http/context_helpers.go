package httpx

import "context"

// requestIDKey is an unexported context key type to avoid collisions
// across packages.
type requestIDKey struct{}

// SetRequestIDInContext returns a child context carrying the request id.
func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request id from context, or empty string.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
