package clients

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for the inbound request id (X-Request-ID)
	RequestIDKey contextKey = "request-id"
)

// WithRequestID adds a request id to the context. It is forwarded as
// X-Request-ID on outbound calls.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	return requestID, ok && requestID != ""
}
