package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// Limiter applies per-IP limits to individual routes.
type Limiter struct {
	windows  *Windows
	window   time.Duration
	logger   *slog.Logger
	disabled bool
}

type Option func(*Limiter)

// WithDisabled turns every Limit into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(l *Limiter) {
		l.disabled = disabled
	}
}

func New(window time.Duration, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		windows: NewWindows(),
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.disabled {
		logger.Info("rate limiting disabled")
	}
	return l
}

// Limit allows at most limit requests per client IP per window on the
// wrapped route. Buckets are separate per name.
func (l *Limiter) Limit(name string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.disabled {
				next.ServeHTTP(w, r)
				return
			}
			res := l.windows.Allow(name+":"+clientIP(r), limit, l.window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed {
				ctx := r.Context()
				retry := max(int(time.Until(res.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				l.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"route", name,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Run drops idle buckets every window until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) error {
	if l.disabled {
		return nil
	}
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.windows.Sweep(l.window)
		case <-ctx.Done():
			return nil
		}
	}
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
