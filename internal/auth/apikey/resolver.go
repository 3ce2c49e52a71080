// Package apikey resolves the API keys minted for approved clients.
//
// Lookups go through an in-process TTL cache, then Redis when configured,
// then the client store. Only approved clients are cached; approval is
// terminal, so a cached entry can never become wrong.
package apikey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"govnet/internal/governance/metrics"
	"govnet/internal/governance/models"
	platformredis "govnet/internal/platform/redis"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/sentinel"
)

// DefaultTTL bounds how long a resolved key stays cached.
const DefaultTTL = 5 * time.Minute

// Lookup tiers and results recorded in metrics.
const (
	tierLocal = "local"
	tierRedis = "redis"
	tierStore = "store"

	resultHit  = "hit"
	resultMiss = "miss"
)

// ClientFinder loads clients by key and id.
type ClientFinder interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error)
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
}

// Resolver maps an API key to its approved client.
type Resolver struct {
	clients ClientFinder
	local   *cache.Cache
	redis   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Resolver)

// WithRedis adds a shared cache tier between the local cache and the store.
func WithRedis(client *redis.Client) Option {
	return func(r *Resolver) {
		r.redis = client
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(clients ClientFinder, opts ...Option) *Resolver {
	r := &Resolver{
		clients: clients,
		ttl:     DefaultTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.local = cache.New(r.ttl, 2*r.ttl)
	return r
}

// Resolve returns the client owning apiKey.
// Unknown keys are CodeUnauthorized; keys of clients that are not approved
// are CodeForbidden.
func (r *Resolver) Resolve(ctx context.Context, apiKey string) (*models.Client, error) {
	if apiKey == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "api key required")
	}
	digest := fingerprint(apiKey)

	if v, ok := r.local.Get(digest); ok {
		if clientID, ok := v.(id.ClientID); ok {
			r.metrics.IncAPIKeyLookup(tierLocal, resultHit)
			return r.loadByID(ctx, clientID)
		}
	}
	r.metrics.IncAPIKeyLookup(tierLocal, resultMiss)

	if clientID, ok := r.fromRedis(ctx, digest); ok {
		r.local.Set(digest, clientID, cache.DefaultExpiration)
		return r.loadByID(ctx, clientID)
	}

	c, err := r.clients.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.metrics.IncAPIKeyLookup(tierStore, resultMiss)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve api key")
	}
	r.metrics.IncAPIKeyLookup(tierStore, resultHit)
	if !c.IsApproved() {
		return nil, dErrors.New(dErrors.CodeForbidden, "client is not approved")
	}
	r.remember(ctx, digest, c.ID)
	return c, nil
}

func (r *Resolver) loadByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	c, err := r.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if !c.IsApproved() {
		return nil, dErrors.New(dErrors.CodeForbidden, "client is not approved")
	}
	return c, nil
}

func (r *Resolver) fromRedis(ctx context.Context, digest string) (id.ClientID, bool) {
	if r.redis == nil {
		return id.ClientID{}, false
	}
	raw, err := r.redis.Get(ctx, platformredis.Key("apikey", digest)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "api key cache read failed", "error", err)
		}
		r.metrics.IncAPIKeyLookup(tierRedis, resultMiss)
		return id.ClientID{}, false
	}
	clientID, err := id.ParseClientID(raw)
	if err != nil {
		r.metrics.IncAPIKeyLookup(tierRedis, resultMiss)
		return id.ClientID{}, false
	}
	r.metrics.IncAPIKeyLookup(tierRedis, resultHit)
	return clientID, true
}

func (r *Resolver) remember(ctx context.Context, digest string, clientID id.ClientID) {
	r.local.Set(digest, clientID, cache.DefaultExpiration)
	if r.redis == nil {
		return
	}
	if err := r.redis.Set(ctx, platformredis.Key("apikey", digest), clientID.String(), r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "api key cache write failed", "error", err)
	}
}

// fingerprint keeps raw keys out of cache keys.
func fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
