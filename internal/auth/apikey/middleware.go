package apikey

import (
	"context"
	"log/slog"
	"net/http"

	"govnet/internal/governance/models"
	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// HeaderAPIKey carries a client's API key.
const HeaderAPIKey = "X-API-Key"

// ClientResolver maps an API key to an approved client.
type ClientResolver interface {
	Resolve(ctx context.Context, apiKey string) (*models.Client, error)
}

// RequireAPIKey admits only requests whose X-API-Key belongs to an approved
// client, and stores that client's id in the request context.
func RequireAPIKey(resolver ClientResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			c, err := resolver.Resolve(ctx, r.Header.Get(HeaderAPIKey))
			if err != nil {
				logger.WarnContext(ctx, "api key rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			ctx = requestcontext.WithClientID(ctx, c.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
