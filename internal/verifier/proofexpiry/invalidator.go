// Package proofexpiry abandons proof requests a holder never answered.
//
// Each pass lists the agent's recent present-proof records and sends a
// problem report for every verifier-side request that has been waiting
// longer than the timeout.
package proofexpiry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 2 * time.Minute

	// ServiceName identifies the invalidator in status reports.
	ServiceName = "proof-request-expiry"

	// ProblemDescription is sent to the holder with every problem report.
	ProblemDescription = "Proof request timed out due to no response from holder"
)

const roleVerifier = "verifier"

// pendingStates are the exchange states in which the verifier is still
// waiting on the holder.
var pendingStates = map[string]bool{
	"request-sent":     true,
	"request-received": true,
}

// Failure stages recorded in metrics.
const (
	stageList   = "list"
	stageParse  = "parse"
	stageReport = "report"
)

// Status is a point-in-time view of the invalidator.
type Status struct {
	Enabled       bool       `json:"enabled"`
	Running       bool       `json:"running"`
	CheckInterval string     `json:"check_interval"`
	Timeout       string     `json:"timeout"`
	Service       string     `json:"service"`
	LastPassAt    *time.Time `json:"last_pass_at,omitempty"`
}

// PassResult counts what one pass did.
type PassResult struct {
	Scanned     int `json:"scanned"`
	Invalidated int `json:"invalidated"`
	Errors      int `json:"errors"`
}

type Invalidator struct {
	agent    Agent
	enabled  bool
	interval time.Duration
	timeout  time.Duration
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *Metrics

	passMu sync.Mutex

	mu       sync.Mutex
	running  bool
	lastPass time.Time
}

type Option func(*Invalidator)

// WithEnabled toggles the loop. A disabled invalidator's Run returns at once;
// InvalidateAt still works for manual passes.
func WithEnabled(enabled bool) Option {
	return func(i *Invalidator) {
		i.enabled = enabled
	}
}

func WithInterval(interval time.Duration) Option {
	return func(i *Invalidator) {
		if interval > 0 {
			i.interval = interval
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(i *Invalidator) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(i *Invalidator) {
		i.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Invalidator) {
		i.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(i *Invalidator) {
		i.metrics = m
	}
}

func New(a Agent, opts ...Option) *Invalidator {
	i := &Invalidator{
		agent:    a,
		enabled:  true,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run invalidates stale proof requests every interval until ctx is cancelled.
func (i *Invalidator) Run(ctx context.Context) error {
	if !i.enabled {
		i.logger.InfoContext(ctx, "proof request expiry disabled")
		return nil
	}

	i.mu.Lock()
	i.running = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
		i.logger.Info("proof request expiry stopped")
	}()

	i.logger.InfoContext(ctx, "proof request expiry started",
		"check_interval", i.interval.String(),
		"timeout", i.timeout.String(),
	)

	i.InvalidateAt(ctx, i.clock())

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.InvalidateAt(ctx, i.clock())
		case <-ctx.Done():
			return nil
		}
	}
}

func (i *Invalidator) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	st := Status{
		Enabled:       i.enabled,
		Running:       i.running,
		CheckInterval: i.interval.String(),
		Timeout:       i.timeout.String(),
		Service:       ServiceName,
	}
	if !i.lastPass.IsZero() {
		last := i.lastPass
		st.LastPassAt = &last
	}
	return st
}

// CheckNow runs one pass against the current time.
func (i *Invalidator) CheckNow(ctx context.Context) PassResult {
	return i.InvalidateAt(ctx, i.clock())
}

// InvalidateAt runs one pass judging record age against now.
// Exported for testability; the loop passes the configured clock.
func (i *Invalidator) InvalidateAt(ctx context.Context, now time.Time) PassResult {
	i.passMu.Lock()
	defer i.passMu.Unlock()

	var res PassResult
	records, err := i.agent.ListProofRecords(ctx)
	if err != nil {
		res.Errors++
		i.metrics.incFailure(stageList)
		i.logger.ErrorContext(ctx, "failed to list proof records", "error", err)
		return res
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if rec.Role != roleVerifier || !pendingStates[rec.State] {
			continue
		}
		res.Scanned++
		if strings.TrimSpace(rec.UpdatedAt) == "" {
			continue
		}

		updated, err := rec.UpdatedAtTime()
		if err != nil {
			res.Errors++
			i.metrics.incFailure(stageParse)
			i.logger.WarnContext(ctx, "skipping proof record with bad timestamp",
				"pres_ex_id", rec.PresExID,
				"error", err,
			)
			continue
		}
		if now.Sub(updated) <= i.timeout {
			continue
		}

		if err := i.agent.SendProblemReport(ctx, rec.PresExID, ProblemDescription); err != nil {
			res.Errors++
			i.metrics.incFailure(stageReport)
			i.logger.ErrorContext(ctx, "failed to invalidate proof request",
				"pres_ex_id", rec.PresExID,
				"error", err,
			)
			continue
		}
		res.Invalidated++
		i.metrics.incInvalidated()
		i.logger.InfoContext(ctx, "proof request invalidated",
			"pres_ex_id", rec.PresExID,
			"state", rec.State,
			"waited", now.Sub(updated).Round(time.Second).String(),
		)
	}

	i.mu.Lock()
	i.lastPass = now
	i.mu.Unlock()
	return res
}
