// Package redis connects the shared cache used across governance replicas.
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"govnet/internal/platform/config"
)

// Namespace prefixes every key this service writes.
const Namespace = "govnet"

// Key joins parts under Namespace, e.g. Key("apikey", digest) is
// "govnet:apikey:<digest>".
func Key(parts ...string) string {
	return Namespace + ":" + strings.Join(parts, ":")
}

// Client is a connected go-redis client.
type Client struct {
	*redis.Client
}

// New dials Redis and verifies the connection. It returns (nil, nil) when no
// URL is configured so callers can fall back to in-process caching.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: client}, nil
}

// options overlays the configured pool and timeouts on the URL's settings.
// Zero values keep the go-redis defaults.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Health pings the server; it backs the "redis" entry of GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
