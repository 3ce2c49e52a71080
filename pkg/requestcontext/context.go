// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//	clientID := requestcontext.ClientID(ctx) // set by the API-key gate
//
// Tests and background workers inject a fixed clock with WithTime.
package requestcontext

import (
	"context"
	"time"

	id "govnet/pkg/domain"
)

type (
	clientIDKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyClientID    = clientIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ClientID retrieves the governance client authenticated by API key.
// Returns the zero value if the request was not authenticated.
func ClientID(ctx context.Context) id.ClientID {
	if clientID, ok := ctx.Value(ContextKeyClientID).(id.ClientID); ok {
		return clientID
	}
	return id.ClientID{}
}

// WithClientID injects an authenticated client id into the context.
func WithClientID(ctx context.Context, clientID id.ClientID) context.Context {
	return context.WithValue(ctx, ContextKeyClientID, clientID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() when unset (schedulers, CLI, most tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Schedulers use it so every client in one sweep is judged against the same instant.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
