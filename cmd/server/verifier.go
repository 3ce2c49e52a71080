package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"govnet/internal/agent"
	"govnet/internal/platform/config"
	"govnet/internal/platform/httpserver"
	"govnet/internal/platform/logger"
	platformmetrics "govnet/internal/platform/metrics"
	"govnet/internal/platform/middleware"
	"govnet/internal/verifier/proofexpiry"
	"govnet/pkg/platform/httputil"
)

func verifierCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verifier",
		Short: "Run the proof request expiry scheduler against a verifier agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return runVerifier(ctx, configFrom(ctx))
		},
	}
}

func runVerifier(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Debug)
	log.Info("starting verifier service", "component", programName, "addr", cfg.Server.VerifierAddr)

	agentClient := agent.New(cfg.Agent.AdminURL,
		agent.WithAPIKey(cfg.Agent.APIKey),
		agent.WithTimeout(cfg.Agent.Timeout),
	)
	invalidator := proofexpiry.New(agentClient,
		proofexpiry.WithEnabled(cfg.Proof.Enabled),
		proofexpiry.WithInterval(cfg.Proof.CheckInterval),
		proofexpiry.WithTimeout(cfg.Proof.Timeout),
		proofexpiry.WithLogger(log),
		proofexpiry.WithMetrics(proofexpiry.NewMetrics(prometheus.DefaultRegisterer)),
	)

	httpMetrics := platformmetrics.New()
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestContext)
	r.Use(httpMetrics.Instrument)
	r.Handle("/metrics", platformmetrics.Handler())
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/proof-expiry/status", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, invalidator.Status())
	})
	r.With(middleware.RequireAdminToken(cfg.Server.AdminToken, log)).
		Post("/proof-expiry/check-now", func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteJSON(w, http.StatusOK, invalidator.CheckNow(r.Context()))
		})

	srv := httpserver.New(cfg.Server.VerifierAddr, r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return invalidator.Run(gctx) })
	g.Go(func() error { return httpserver.Run(gctx, srv, log) })
	return g.Wait()
}
