// Package config loads process configuration from the environment.
//
// Every variable is prefixed with GOVNET_, for example GOVNET_HTTP_ADDR or
// GOVNET_VOTING_WINDOW. Durations use Go syntax ("10s", "2m").
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"govnet/pkg/platform/strings"
)

const envPrefix = "govnet"

// Config is the full process configuration.
type Config struct {
	Debug bool `envconfig:"DEBUG" default:"false"`

	Server   Server            `envconfig:"HTTP"`
	Database DatabaseConfig    `envconfig:"DATABASE"`
	Redis    RedisConfig       `envconfig:"REDIS"`
	Kafka    KafkaConfig       `envconfig:"KAFKA"`
	Agent    AgentConfig       `envconfig:"AGENT"`
	Voting   VotingConfig      `envconfig:"VOTING"`
	Proof    ProofExpiryConfig `envconfig:"PROOF_EXPIRY"`
	APIKey   APIKeyConfig      `envconfig:"API_KEY"`
	Limits   RateLimitConfig   `envconfig:"RATE_LIMIT"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr         string `envconfig:"ADDR" default:":8080"`
	VerifierAddr string `envconfig:"VERIFIER_ADDR" default:":8081"`
	// AdminToken guards steward administration and scheduler routes.
	AdminToken string `envconfig:"ADMIN_TOKEN" default:"dev-admin-token-change-in-production"`
}

// DatabaseConfig selects the entity store backend. An empty URL runs in-memory.
type DatabaseConfig struct {
	URL             string        `envconfig:"URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

// RedisConfig configures the API-key resolution cache. An empty URL falls back
// to the in-process cache.
type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// KafkaConfig configures the governance event sink. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `envconfig:"BROKERS"`
	Topic   string   `envconfig:"TOPIC" default:"governance.events"`
}

// AgentConfig points at the SSI agent admin API.
type AgentConfig struct {
	AdminURL string        `envconfig:"ADMIN_URL" default:"http://localhost:8021"`
	APIKey   string        `envconfig:"API_KEY"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// VotingConfig drives the quorum engine and its expiry scheduler.
type VotingConfig struct {
	CheckInterval time.Duration `envconfig:"CHECK_INTERVAL" default:"10s"`
	Window        time.Duration `envconfig:"WINDOW" default:"2m"`
	// AbsoluteTimeout rejects clients that never receive a vote. Zero disables it.
	AbsoluteTimeout time.Duration `envconfig:"ABSOLUTE_TIMEOUT" default:"0s"`
}

// ProofExpiryConfig drives the verifier's proof request invalidator.
type ProofExpiryConfig struct {
	Enabled       bool          `envconfig:"ENABLED" default:"true"`
	CheckInterval time.Duration `envconfig:"CHECK_INTERVAL" default:"10s"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"2m"`
}

// APIKeyConfig tunes the API-key resolution cache.
type APIKeyConfig struct {
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// RateLimitConfig throttles the public write routes per client IP.
type RateLimitConfig struct {
	Enabled       bool          `envconfig:"ENABLED" default:"true"`
	Window        time.Duration `envconfig:"WINDOW" default:"1m"`
	Registrations int           `envconfig:"REGISTRATIONS" default:"10"`
	LedgerWrites  int           `envconfig:"LEDGER_WRITES" default:"5"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}
	cfg.Kafka.Brokers = strings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the schedulers cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.AdminToken == "" {
		errs = append(errs, errors.New("GOVNET_HTTP_ADMIN_TOKEN must not be empty"))
	}
	if c.Voting.CheckInterval <= 0 {
		errs = append(errs, errors.New("GOVNET_VOTING_CHECK_INTERVAL must be positive"))
	}
	if c.Voting.Window <= 0 {
		errs = append(errs, errors.New("GOVNET_VOTING_WINDOW must be positive"))
	}
	if c.Voting.AbsoluteTimeout < 0 {
		errs = append(errs, errors.New("GOVNET_VOTING_ABSOLUTE_TIMEOUT must not be negative"))
	}
	if c.Proof.Enabled {
		if c.Proof.CheckInterval <= 0 {
			errs = append(errs, errors.New("GOVNET_PROOF_EXPIRY_CHECK_INTERVAL must be positive"))
		}
		if c.Proof.Timeout <= 0 {
			errs = append(errs, errors.New("GOVNET_PROOF_EXPIRY_TIMEOUT must be positive"))
		}
	}
	if c.Limits.Enabled && (c.Limits.Window <= 0 || c.Limits.Registrations <= 0 || c.Limits.LedgerWrites <= 0) {
		errs = append(errs, errors.New("GOVNET_RATE_LIMIT_* values must be positive"))
	}
	if c.APIKey.CacheTTL <= 0 {
		errs = append(errs, errors.New("GOVNET_API_KEY_CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}
