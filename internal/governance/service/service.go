// Package service orchestrates client admission: registration, steward
// administration, vote casting and the ledger registration gate.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"govnet/internal/governance/events"
	"govnet/internal/governance/metrics"
	"govnet/internal/governance/models"
	"govnet/internal/governance/quorum"
	id "govnet/pkg/domain"
	"govnet/pkg/requestcontext"
)

type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	FindByTaxID(ctx context.Context, taxID string) (*models.Client, error)
	FindByEmail(ctx context.Context, email string) (*models.Client, error)
	List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error)
	SetFirstVoteAt(ctx context.Context, clientID id.ClientID, at time.Time) (bool, error)
}

type StewardStore interface {
	Create(ctx context.Context, st *models.Steward) error
	FindByID(ctx context.Context, stewardID id.StewardID) (*models.Steward, error)
	FindByEmail(ctx context.Context, email string) (*models.Steward, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Steward, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, st *models.Steward) error
	Delete(ctx context.Context, stewardID id.StewardID) error
}

type VoteStore interface {
	Create(ctx context.Context, v *models.Vote) error
	FindByPair(ctx context.Context, stewardID id.StewardID, clientID id.ClientID) (*models.Vote, error)
	ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Vote, error)
	ListBySteward(ctx context.Context, stewardID id.StewardID) ([]*models.Vote, error)
	CountBySteward(ctx context.Context, stewardID id.StewardID) (int, error)
}

type RegistrationStore interface {
	Create(ctx context.Context, r *models.Registration) error
	FindByID(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error)
	FindByClientID(ctx context.Context, clientID id.ClientID) (*models.Registration, error)
	FindByDID(ctx context.Context, did string) (*models.Registration, error)
	FindByVerkey(ctx context.Context, verkey string) (*models.Registration, error)
	UpdateStatus(ctx context.Context, registrationID id.RegistrationID, status models.LedgerStatus, now time.Time) error
}

// Evaluator applies the quorum rules to one client.
type Evaluator interface {
	Evaluate(ctx context.Context, clientID id.ClientID, trigger quorum.Trigger) (*quorum.Result, error)
	Rules() quorum.Rules
}

// Service is the governance application service.
type Service struct {
	clients       ClientStore
	stewards      StewardStore
	votes         VoteStore
	registrations RegistrationStore
	engine        Evaluator
	agent         LedgerAgent
	publisher     EventPublisher
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLedgerAgent enables ledger registration. Without it Register fails
// with a ledger error.
func WithLedgerAgent(a LedgerAgent) Option {
	return func(s *Service) {
		s.agent = a
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(clients ClientStore, stewards StewardStore, votes VoteStore, registrations RegistrationStore, engine Evaluator, opts ...Option) *Service {
	s := &Service{
		clients:       clients,
		stewards:      stewards,
		votes:         votes,
		registrations: registrations,
		engine:        engine,
		logger:        slog.Default(),
		tracer:        otel.Tracer("govnet/governance/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish governance event",
			"request_id", requestcontext.RequestID(ctx),
			"event", string(event.Type),
			"error", err,
		)
	}
}
