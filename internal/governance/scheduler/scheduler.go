// Package scheduler runs the periodic voting-expiry sweep.
//
// Deadlines are compared against stored timestamps, so a restarted scheduler
// picks up exactly where the last one stopped.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"govnet/internal/governance/metrics"
	"govnet/internal/governance/models"
	"govnet/internal/governance/quorum"
	id "govnet/pkg/domain"
	"govnet/pkg/requestcontext"
)

// DefaultInterval is the pause between sweeps.
const DefaultInterval = 10 * time.Second

// ServiceName identifies the sweep in status reports.
const ServiceName = "voting-scheduler"

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

// ClientLister lists clients by filter.
type ClientLister interface {
	List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error)
}

// Evaluator applies the quorum rules to one client.
type Evaluator interface {
	Evaluate(ctx context.Context, clientID id.ClientID, trigger quorum.Trigger) (*quorum.Result, error)
	Rules() quorum.Rules
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Running       bool       `json:"running"`
	CheckInterval string     `json:"check_interval"`
	Service       string     `json:"service"`
	LastSweepAt   *time.Time `json:"last_sweep_at,omitempty"`
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Checked   int `json:"checked"`
	Finalized int `json:"finalized"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Errors    int `json:"errors"`
}

// Scheduler finalizes clients whose voting window closed.
type Scheduler struct {
	clients  ClientLister
	engine   Evaluator
	interval time.Duration
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// sweepMu serializes ticks with CheckNow.
	sweepMu sync.Mutex

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastSweep time.Time
}

type Option func(*Scheduler)

func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func New(clients ClientLister, engine Evaluator, opts ...Option) *Scheduler {
	s := &Scheduler{
		clients:  clients,
		engine:   engine,
		interval: DefaultInterval,
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.loop(ctx)
	}(s.done)

	s.logger.InfoContext(ctx, "voting scheduler started",
		"check_interval", s.interval.String(),
		"voting_window", s.engine.Rules().Window.String(),
	)
	return nil
}

// Stop cancels the loop and waits for the current sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.logger.Info("voting scheduler stopped")
	}()

	// Deadlines live in the store, so the first sweep can run right away.
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:       s.running,
		CheckInterval: s.interval.String(),
		Service:       ServiceName,
	}
	if !s.lastSweep.IsZero() {
		last := s.lastSweep
		st.LastSweepAt = &last
	}
	return st
}

// CheckNow runs one sweep immediately, outside the ticker.
func (s *Scheduler) CheckNow(ctx context.Context) SweepResult {
	return s.Sweep(ctx)
}

// Sweep evaluates every voting client whose window closed, and clients that
// never got a vote past the absolute timeout. A failing client is logged and
// skipped.
func (s *Scheduler) Sweep(ctx context.Context) SweepResult {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	start := time.Now()
	defer s.metrics.ObserveSweep(start)

	now := s.clock()
	ctx = requestcontext.WithTime(ctx, now)
	rules := s.engine.Rules()

	var res SweepResult
	voting, err := s.clients.List(ctx, models.ClientFilter{Status: models.ClientStatusVoting})
	if err != nil {
		res.Errors++
		s.metrics.IncSweepError()
		s.logger.ErrorContext(ctx, "failed to list voting clients", "error", err)
		return res
	}

	for _, c := range voting {
		if ctx.Err() != nil {
			break
		}
		var trigger quorum.Trigger
		switch {
		case rules.Expired(c.FirstVoteAt, now):
			trigger = quorum.TriggerExpiry
		case rules.Abandoned(c.FirstVoteAt, c.CreatedAt, now):
			trigger = quorum.TriggerAbandoned
		default:
			continue
		}
		res.Checked++

		out, err := s.engine.Evaluate(ctx, c.ID, trigger)
		if err != nil {
			res.Errors++
			s.metrics.IncSweepError()
			s.logger.ErrorContext(ctx, "failed to finalize expired client",
				"client_id", c.ID.String(),
				"trigger", string(trigger),
				"error", err,
			)
			continue
		}
		if !out.Finalized {
			continue
		}
		res.Finalized++
		switch out.Status {
		case models.ClientStatusApproved:
			res.Approved++
		case models.ClientStatusRejected:
			res.Rejected++
		}
	}

	s.mu.Lock()
	s.lastSweep = now
	s.mu.Unlock()

	if res.Checked > 0 {
		s.logger.InfoContext(ctx, "voting sweep finished",
			"checked", res.Checked,
			"finalized", res.Finalized,
			"approved", res.Approved,
			"rejected", res.Rejected,
			"errors", res.Errors,
		)
	}
	return res
}
