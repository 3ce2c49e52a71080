package quorum

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"govnet/internal/governance/events"
	"govnet/internal/governance/metrics"
	"govnet/internal/governance/models"
	"govnet/internal/governance/tally"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/sentinel"
	"govnet/pkg/requestcontext"
)

// ClientStore is the slice of the client store the engine needs.
type ClientStore interface {
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	// Finalize sets status and api key in one conditional write that only
	// succeeds while the client is still voting. Returns sentinel.ErrStaleState
	// when another finalizer got there first.
	Finalize(ctx context.Context, clientID id.ClientID, status models.ClientStatus, apiKey string, now time.Time) error
}

// VoteLister lists one client's votes.
type VoteLister interface {
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Vote, error)
}

// StewardCounter counts stewards eligible to vote.
type StewardCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// Publisher receives finalization events.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Engine applies quorum decisions to stored clients.
type Engine struct {
	clients   ClientStore
	votes     VoteLister
	stewards  StewardCounter
	rules     Rules
	keygen    KeyGenerator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	tracer    trace.Tracer
}

// Option configures the Engine.
type Option func(*Engine)

func WithRules(rules Rules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

func WithKeyGenerator(gen KeyGenerator) Option {
	return func(e *Engine) {
		e.keygen = gen
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func NewEngine(clients ClientStore, votes VoteLister, stewards StewardCounter, opts ...Option) *Engine {
	e := &Engine{
		clients:  clients,
		votes:    votes,
		stewards: stewards,
		rules:    DefaultRules(),
		keygen:   GenerateAPIKey,
		logger:   slog.Default(),
		tracer:   otel.Tracer("govnet/governance/quorum"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the timing rules the engine decides with.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Result reports what an evaluation did.
type Result struct {
	ClientID id.ClientID
	Status   models.ClientStatus
	Decision Decision
	// Finalized is true only for the evaluation whose write moved the client
	// out of voting.
	Finalized bool
	Tally     tally.Tally
}

// Evaluate recomputes the decision for one client and applies it.
// Terminal clients are returned unchanged, so calling it again is harmless.
func (e *Engine) Evaluate(ctx context.Context, clientID id.ClientID, trigger Trigger) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "quorum.Evaluate", trace.WithAttributes(
		attribute.String("client_id", clientID.String()),
		attribute.String("trigger", string(trigger)),
	))
	defer span.End()

	res, err := e.evaluate(ctx, clientID, trigger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluate failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("status", string(res.Status)),
		attribute.Bool("finalized", res.Finalized),
	)
	return res, nil
}

func (e *Engine) evaluate(ctx context.Context, clientID id.ClientID, trigger Trigger) (*Result, error) {
	client, err := e.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if !client.IsVoting() {
		return &Result{ClientID: clientID, Status: client.Status}, nil
	}

	votes, err := e.votes.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
	}
	active, err := e.stewards.CountActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active stewards")
	}

	now := requestcontext.Now(ctx)
	t := tally.Count(votes)
	decision := e.rules.Decide(Input{
		Tally:          t,
		ActiveStewards: active,
		FirstVoteAt:    client.FirstVoteAt,
		CreatedAt:      client.CreatedAt,
		Now:            now,
	}, trigger)

	res := &Result{ClientID: clientID, Status: client.Status, Decision: decision, Tally: t}
	if !decision.Finalize {
		return res, nil
	}

	var apiKey string
	if decision.Outcome == models.ClientStatusApproved {
		apiKey, err = e.keygen()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint api key")
		}
	}

	if err := e.clients.Finalize(ctx, clientID, decision.Outcome, apiKey, now); err != nil {
		if errors.Is(err, sentinel.ErrStaleState) {
			// A concurrent evaluation finalized first; report its result.
			e.metrics.IncFinalizeConflict()
			current, findErr := e.clients.FindByID(ctx, clientID)
			if findErr != nil {
				return nil, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to reload client")
			}
			res.Status = current.Status
			return res, nil
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize client")
	}

	res.Status = decision.Outcome
	res.Finalized = true
	e.metrics.IncFinalization(string(decision.Outcome), string(trigger))
	e.logger.InfoContext(ctx, "client voting finalized",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID.String(),
		"outcome", string(decision.Outcome),
		"trigger", string(trigger),
		"reason", decision.Reason,
		"total_votes", t.Total,
		"approve_votes", t.Approve,
		"reject_votes", t.Reject,
		"abstain_votes", t.Abstain,
		"active_stewards", active,
	)
	e.emit(ctx, clientID, decision, trigger)
	return res, nil
}

func (e *Engine) emit(ctx context.Context, clientID id.ClientID, decision Decision, trigger Trigger) {
	if e.publisher == nil {
		return
	}
	eventType := events.ClientRejected
	if decision.Outcome == models.ClientStatusApproved {
		eventType = events.ClientApproved
	}
	if err := e.publisher.Emit(ctx, events.Event{
		Type:     eventType,
		ClientID: clientID,
		Outcome:  string(decision.Outcome),
		Trigger:  string(trigger),
		Reason:   decision.Reason,
	}); err != nil {
		e.logger.WarnContext(ctx, "failed to publish finalization event",
			"client_id", clientID.String(),
			"error", err,
		)
	}
}
