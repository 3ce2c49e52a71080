package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"govnet/internal/governance/models"
	"govnet/internal/governance/quorum"
	"govnet/internal/governance/service"
	clientstore "govnet/internal/governance/store/client"
	registrationstore "govnet/internal/governance/store/registration"
	stewardstore "govnet/internal/governance/store/steward"
	votestore "govnet/internal/governance/store/vote"
	"govnet/internal/platform/config"
	"govnet/internal/platform/postgres"
)

type clientBackend interface {
	service.ClientStore
	quorum.ClientStore
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error)
}

type stewardBackend interface {
	service.StewardStore
	quorum.StewardCounter
}

// stores is the persistence backend picked at startup.
type stores struct {
	clients       clientBackend
	stewards      stewardBackend
	votes         service.VoteStore
	registrations service.RegistrationStore
	db            *sql.DB
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStores uses Postgres when a DSN is configured and memory otherwise.
func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*stores, error) {
	if cfg.URL == "" {
		logger.Warn("no database configured, using in-memory stores")
		return &stores{
			clients:       clientstore.NewInMemory(),
			stewards:      stewardstore.NewInMemory(),
			votes:         votestore.NewInMemory(),
			registrations: registrationstore.NewInMemory(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("using postgres stores")
	return &stores{
		clients:       clientstore.NewPostgres(db),
		stewards:      stewardstore.NewPostgres(db),
		votes:         votestore.NewPostgres(db),
		registrations: registrationstore.NewPostgres(db),
		db:            db,
	}, nil
}
