package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// HeaderAdminToken carries the operator token for administrative routes.
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token does not match.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "invalid admin token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
