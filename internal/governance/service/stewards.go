package service

import (
	"context"
	"errors"

	"govnet/internal/governance/events"
	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/sentinel"
	"govnet/pkg/requestcontext"
)

// DefaultRoster is the founding steward set seeded into an empty store.
var DefaultRoster = []models.CreateStewardRequest{
	{Name: "Dr. Carlos Silva", Email: "carlos.silva@governance.com", Organization: "Governança Digital Brasil", Role: models.DefaultStewardRole},
	{Name: "Dra. Maria Santos", Email: "maria.santos@governance.com", Organization: "Governança Digital Brasil", Role: models.DefaultStewardRole},
	{Name: "Prof. João Oliveira", Email: "joao.oliveira@university.edu.br", Organization: "Universidade Federal Tech", Role: models.DefaultStewardRole},
	{Name: "Ana Costa", Email: "ana.costa@certifica.org", Organization: "Instituto Certificador Nacional", Role: models.DefaultStewardRole},
	{Name: "Ricardo Mendes", Email: "ricardo.mendes@blockchain.org", Organization: "Blockchain Association", Role: models.DefaultStewardRole},
}

// SeedStewards creates roster when no steward exists yet and reports how many
// were created. Emails already present are skipped.
func (s *Service) SeedStewards(ctx context.Context, roster []models.CreateStewardRequest) (int, error) {
	count, err := s.stewards.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count stewards")
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for i := range roster {
		req := roster[i]
		if _, err := s.CreateSteward(ctx, &req); err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				continue
			}
			return created, err
		}
		created++
	}
	s.logger.InfoContext(ctx, "steward roster seeded", "created", created)
	return created, nil
}

func (s *Service) CreateSteward(ctx context.Context, req *models.CreateStewardRequest) (*models.Steward, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.stewards.FindByEmail(ctx, req.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "steward email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check steward email")
	}

	st, err := models.NewSteward(id.NewStewardID(), req.Name, req.Email, req.Organization, req.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.stewards.Create(ctx, st); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "steward email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create steward")
	}
	s.emit(ctx, events.Event{Type: events.StewardCreated, StewardID: st.ID})
	return st, nil
}

func (s *Service) GetSteward(ctx context.Context, stewardID id.StewardID) (*models.Steward, error) {
	st, err := s.stewards.FindByID(ctx, stewardID)
	if err != nil {
		return nil, stewardLookupError(err)
	}
	return st, nil
}

func (s *Service) ListStewards(ctx context.Context, activeOnly bool) ([]*models.Steward, error) {
	list, err := s.stewards.List(ctx, activeOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stewards")
	}
	return list, nil
}

// DeactivateSteward removes a steward from the quorum denominator. Their
// earlier ballots still count.
func (s *Service) DeactivateSteward(ctx context.Context, stewardID id.StewardID) (*models.Steward, error) {
	st, err := s.stewards.FindByID(ctx, stewardID)
	if err != nil {
		return nil, stewardLookupError(err)
	}
	if err := st.Deactivate(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.stewards.Update(ctx, st); err != nil {
		return nil, stewardLookupError(err)
	}
	s.logger.InfoContext(ctx, "steward deactivated",
		"request_id", requestcontext.RequestID(ctx),
		"steward_id", stewardID.String(),
	)
	s.emit(ctx, events.Event{Type: events.StewardDeactivated, StewardID: stewardID})
	return st, nil
}

// DeleteSteward hard-deletes a steward that never voted. Stewards with
// ballots must be deactivated instead.
func (s *Service) DeleteSteward(ctx context.Context, stewardID id.StewardID) error {
	if _, err := s.stewards.FindByID(ctx, stewardID); err != nil {
		return stewardLookupError(err)
	}
	n, err := s.votes.CountBySteward(ctx, stewardID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count steward votes")
	}
	if n > 0 {
		return dErrors.New(dErrors.CodeInvalidState, "steward has votes; deactivate instead")
	}
	if err := s.stewards.Delete(ctx, stewardID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeInvalidState, "steward has votes; deactivate instead")
		}
		return stewardLookupError(err)
	}
	s.emit(ctx, events.Event{Type: events.StewardDeleted, StewardID: stewardID})
	return nil
}

// StewardVotes lists every ballot a steward cast, oldest first.
func (s *Service) StewardVotes(ctx context.Context, stewardID id.StewardID) ([]*models.Vote, error) {
	if _, err := s.stewards.FindByID(ctx, stewardID); err != nil {
		return nil, stewardLookupError(err)
	}
	votes, err := s.votes.ListBySteward(ctx, stewardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
	}
	return votes, nil
}

func (s *Service) StewardStatistics(ctx context.Context) (*models.StewardStats, error) {
	list, err := s.stewards.List(ctx, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stewards")
	}
	stats := &models.StewardStats{Total: len(list)}
	for _, st := range list {
		if st.IsActive() {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats, nil
}

func stewardLookupError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "steward not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load steward")
}
