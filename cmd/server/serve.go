package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"govnet/internal/agent"
	"govnet/internal/auth/apikey"
	"govnet/internal/governance/events"
	"govnet/internal/governance/handler"
	"govnet/internal/governance/metrics"
	"govnet/internal/governance/quorum"
	"govnet/internal/governance/scheduler"
	"govnet/internal/governance/service"
	"govnet/internal/platform/config"
	"govnet/internal/platform/httpserver"
	"govnet/internal/platform/kafka"
	"govnet/internal/platform/logger"
	platformmetrics "govnet/internal/platform/metrics"
	"govnet/internal/platform/middleware"
	"govnet/internal/platform/ratelimit"
	"govnet/internal/platform/redis"
	"govnet/pkg/platform/circuit"
)

const eventBufferSize = 1024

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the governance API and the voting expiry scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return runServe(ctx, configFrom(ctx))
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Debug)
	log.Info("starting governance service", "component", programName, "addr", cfg.Server.Addr)

	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer st.Close()

	govMetrics := metrics.New()

	publisher, closeEvents, err := newPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	engine := quorum.NewEngine(st.clients, st.votes, st.stewards,
		quorum.WithRules(quorum.Rules{
			Window:          cfg.Voting.Window,
			AbsoluteTimeout: cfg.Voting.AbsoluteTimeout,
		}),
		quorum.WithLogger(log),
		quorum.WithMetrics(govMetrics),
		quorum.WithPublisher(publisher),
	)

	agentClient := agent.New(cfg.Agent.AdminURL,
		agent.WithAPIKey(cfg.Agent.APIKey),
		agent.WithTimeout(cfg.Agent.Timeout),
	)
	svc := service.New(st.clients, st.stewards, st.votes, st.registrations, engine,
		service.WithLogger(log),
		service.WithMetrics(govMetrics),
		service.WithPublisher(publisher),
		service.WithLedgerAgent(agentClient),
	)
	seeded, err := svc.SeedStewards(ctx, service.DefaultRoster)
	if err != nil {
		return fmt.Errorf("seed stewards: %w", err)
	}
	if seeded > 0 {
		log.Info("seeded steward roster", "count", seeded)
	}

	sched := scheduler.New(st.clients, engine,
		scheduler.WithInterval(cfg.Voting.CheckInterval),
		scheduler.WithLogger(log),
		scheduler.WithMetrics(govMetrics),
	)

	resolverOpts := []apikey.Option{
		apikey.WithTTL(cfg.APIKey.CacheTTL),
		apikey.WithLogger(log),
		apikey.WithMetrics(govMetrics),
	}
	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if cache != nil {
		defer cache.Close()
		resolverOpts = append(resolverOpts, apikey.WithRedis(cache.Client))
	}
	resolver := apikey.NewResolver(st.clients, resolverOpts...)

	h := handler.New(svc, sched, log)
	if st.db != nil {
		h.AddHealthCheck("database", st.db.PingContext)
	}
	if cache != nil {
		h.AddHealthCheck("redis", cache.Health)
	}

	httpMetrics := platformmetrics.New()
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.AccessLog(log))
	r.Use(httpMetrics.Instrument)
	r.Handle("/metrics", platformmetrics.Handler())
	limiter := ratelimit.New(cfg.Limits.Window, log, ratelimit.WithDisabled(!cfg.Limits.Enabled))
	h.Register(r, handler.Gates{
		Admin:        middleware.RequireAdminToken(cfg.Server.AdminToken, log),
		APIKey:       apikey.RequireAPIKey(resolver, log),
		Registration: limiter.Limit("client_registration", cfg.Limits.Registrations),
		LedgerWrite:  limiter.Limit("ledger_register", cfg.Limits.LedgerWrites),
	})

	srv := httpserver.New(cfg.Server.Addr, r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error { return httpserver.Run(gctx, srv, log) })
	if err := g.Wait(); err != nil {
		log.Error("governance service stopped", "error", err)
		return err
	}
	log.Info("governance service stopped")
	return nil
}

// newPublisher forwards events to Kafka when brokers are configured; the
// audit log line is always written.
func newPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (*events.Publisher, func(), error) {
	producer, err := kafka.NewProducer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	if producer == nil {
		return events.NewPublisher(events.WithLogger(log)), func() {}, nil
	}

	publisher := events.NewPublisher(
		events.WithLogger(log),
		events.WithSink(events.NewKafkaSink(producer, cfg.Topic)),
		events.WithBreaker(circuit.New("kafka")),
		events.WithAsyncBuffer(eventBufferSize),
	)
	log.Info("forwarding governance events to kafka", "topic", cfg.Topic)
	return publisher, func() {
		_ = publisher.Close()
		producer.Close()
	}, nil
}
