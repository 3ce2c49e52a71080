// Package handler exposes the governance service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govnet/internal/governance/models"
	"govnet/internal/governance/scheduler"
	"govnet/internal/governance/service"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/httputil"
)

// Service is the governance surface the handlers call.
type Service interface {
	RegisterClient(ctx context.Context, req *models.RegisterClientRequest) (*models.Client, error)
	GetClient(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	GetClientByTaxID(ctx context.Context, taxID string) (*models.Client, error)
	ListClients(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error)
	ClientStatistics(ctx context.Context) (*models.ClientStats, error)
	VotingDetails(ctx context.Context, clientID id.ClientID) (*service.VotingDetails, error)

	CreateSteward(ctx context.Context, req *models.CreateStewardRequest) (*models.Steward, error)
	GetSteward(ctx context.Context, stewardID id.StewardID) (*models.Steward, error)
	ListStewards(ctx context.Context, activeOnly bool) ([]*models.Steward, error)
	DeactivateSteward(ctx context.Context, stewardID id.StewardID) (*models.Steward, error)
	DeleteSteward(ctx context.Context, stewardID id.StewardID) error
	StewardVotes(ctx context.Context, stewardID id.StewardID) ([]*models.Vote, error)
	StewardStatistics(ctx context.Context) (*models.StewardStats, error)

	CastVote(ctx context.Context, req *models.CastVoteRequest) (*service.VoteResult, error)

	RegisterOnLedger(ctx context.Context, clientID id.ClientID, req *models.RegistrationRequest) (*models.Registration, error)
	ClientRegistration(ctx context.Context, clientID id.ClientID) (*models.Registration, error)
	UpdateLedgerStatus(ctx context.Context, registrationID id.RegistrationID, req *models.UpdateLedgerStatusRequest) (*models.Registration, error)
}

// Scheduler is the voting sweep as seen by the admin routes.
type Scheduler interface {
	Status() scheduler.Status
	CheckNow(ctx context.Context) scheduler.SweepResult
}

// Handler wires governance endpoints to the service.
type Handler struct {
	service   Service
	scheduler Scheduler
	logger    *slog.Logger
	checks    []healthCheck
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

func New(svc Service, sched Scheduler, logger *slog.Logger) *Handler {
	return &Handler{
		service:   svc,
		scheduler: sched,
		logger:    logger,
	}
}

// Middleware wraps a route handler.
type Middleware func(http.Handler) http.Handler

// Gates are the access controls applied per route group. Nil entries are
// replaced with a pass-through.
type Gates struct {
	// Admin guards steward administration and operator routes.
	Admin Middleware
	// APIKey guards routes acting on behalf of an approved client.
	APIKey Middleware
	// Registration throttles POST /clients.
	Registration Middleware
	// LedgerWrite throttles POST /ledger/register.
	LedgerWrite Middleware
}

func passThrough(next http.Handler) http.Handler { return next }

func (g Gates) withDefaults() Gates {
	for _, m := range []*Middleware{&g.Admin, &g.APIKey, &g.Registration, &g.LedgerWrite} {
		if *m == nil {
			*m = passThrough
		}
	}
	return g
}

// Register mounts the governance routes.
func (h *Handler) Register(r chi.Router, gates Gates) {
	g := gates.withDefaults()

	r.Get("/api/health", h.HandleHealth)

	r.Route("/clients", func(r chi.Router) {
		r.With(g.Registration).Post("/", h.HandleRegisterClient)
		r.Get("/", h.HandleListClients)
		r.Get("/statistics/overview", h.HandleClientStatistics)
		r.Get("/tax-id/{taxID}", h.HandleGetClientByTaxID)
		r.Get("/{clientID}", h.HandleGetClient)
		r.Get("/{clientID}/votes", h.HandleVotingDetails)
		r.With(g.Admin).Get("/{clientID}/api-key", h.HandleGetAPIKey)
	})

	r.Route("/stewards", func(r chi.Router) {
		r.Get("/", h.HandleListStewards)
		r.Get("/statistics", h.HandleStewardStatistics)
		r.Get("/{stewardID}", h.HandleGetSteward)
		r.Get("/{stewardID}/votes", h.HandleStewardVotes)

		r.Group(func(r chi.Router) {
			r.Use(g.Admin)
			r.Post("/", h.HandleCreateSteward)
			r.Post("/votes", h.HandleCastVote)
			r.Post("/{stewardID}/deactivate", h.HandleDeactivateSteward)
			r.Delete("/{stewardID}", h.HandleDeleteSteward)
		})
	})

	r.Route("/ledger", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(g.APIKey)
			r.With(g.LedgerWrite).Post("/register", h.HandleRegisterOnLedger)
			r.Get("/registration", h.HandleGetRegistration)
		})
		r.With(g.Admin).Patch("/registrations/{registrationID}/status", h.HandleUpdateLedgerStatus)
	})

	r.Route("/scheduler", func(r chi.Router) {
		r.Get("/status", h.HandleSchedulerStatus)
		r.With(g.Admin).Post("/check-now", h.HandleCheckNow)
	})
}

// AddHealthCheck registers a dependency probed by GET /api/health.
func (h *Handler) AddHealthCheck(name string, check func(context.Context) error) {
	h.checks = append(h.checks, healthCheck{name: name, check: check})
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	resp := map[string]string{"status": "ok"}
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "dependency", c.name, "error", err)
			resp[c.name] = "unavailable"
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp[c.name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
