package testutil

import (
	"context"
	"net/http"
	"time"

	"govnet/pkg/requestcontext"
)

// WithAPIKey sets the client API key header read by the API-key gate.
func WithAPIKey(req *http.Request, apiKey string) *http.Request {
	req.Header.Set("X-API-Key", apiKey)
	return req
}

// At returns a context pinned to t, for deterministic deadline tests.
func At(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
