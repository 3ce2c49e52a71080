package service

import (
	"context"
	"errors"
	"time"

	"govnet/internal/governance/events"
	"govnet/internal/governance/models"
	"govnet/internal/governance/tally"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/sentinel"
	"govnet/pkg/requestcontext"
)

// RegisterClient opens an admission vote for a new organization.
func (s *Service) RegisterClient(ctx context.Context, req *models.RegisterClientRequest) (*models.Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.clients.FindByTaxID(ctx, req.TaxID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "tax id already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check tax id")
	}
	if _, err := s.clients.FindByEmail(ctx, req.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	c, err := models.NewClient(id.NewClientID(), req.CompanyName, req.TaxID, req.Email,
		req.Phone, req.Address, req.Role, req.Justification, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, c); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tax id or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}

	s.logger.InfoContext(ctx, "client registered",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", c.ID.String(),
		"role", string(c.Role),
	)
	s.emit(ctx, events.Event{Type: events.ClientRegistered, ClientID: c.ID, Outcome: string(c.Status)})
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, clientLookupError(err)
	}
	return c, nil
}

func (s *Service) GetClientByTaxID(ctx context.Context, taxID string) (*models.Client, error) {
	c, err := s.clients.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, clientLookupError(err)
	}
	return c, nil
}

// ListClients returns clients matching filter, oldest first.
func (s *Service) ListClients(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be one of voting, approved, rejected")
	}
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of issuer, verifier, both")
	}
	list, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	return list, nil
}

func (s *Service) ClientStatistics(ctx context.Context) (*models.ClientStats, error) {
	list, err := s.clients.List(ctx, models.ClientFilter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	stats := &models.ClientStats{}
	for _, c := range list {
		stats.Add(c)
	}
	return stats, nil
}

// VoteDetail is a vote annotated with its steward's name.
type VoteDetail struct {
	*models.Vote
	StewardName string `json:"steward_name"`
}

// VotingDetails is the live state of a client's vote.
type VotingDetails struct {
	ClientID       id.ClientID         `json:"client_id"`
	ClientName     string              `json:"client_name"`
	Status         models.ClientStatus `json:"status"`
	Tally          tally.Tally         `json:"tally"`
	FirstVoteAt    *time.Time          `json:"first_vote_at"`
	VotingDeadline *time.Time          `json:"voting_deadline"`
	Votes          []VoteDetail        `json:"votes"`
}

// VotingDetails reports the tally, deadline and ballots of one client.
// Ballots from stewards no longer on the roster show as "unknown".
func (s *Service) VotingDetails(ctx context.Context, clientID id.ClientID) (*VotingDetails, error) {
	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, clientLookupError(err)
	}
	votes, err := s.votes.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list votes")
	}

	details := &VotingDetails{
		ClientID:    c.ID,
		ClientName:  c.CompanyName,
		Status:      c.Status,
		Tally:       tally.Count(votes),
		FirstVoteAt: c.FirstVoteAt,
		Votes:       make([]VoteDetail, 0, len(votes)),
	}
	if deadline, ok := c.VotingDeadline(s.engine.Rules().Window); ok {
		details.VotingDeadline = &deadline
	}

	names := make(map[id.StewardID]string)
	for _, v := range votes {
		name, seen := names[v.StewardID]
		if !seen {
			name = "unknown"
			st, err := s.stewards.FindByID(ctx, v.StewardID)
			switch {
			case err == nil:
				name = st.Name
			case !errors.Is(err, sentinel.ErrNotFound):
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load steward")
			}
			names[v.StewardID] = name
		}
		details.Votes = append(details.Votes, VoteDetail{Vote: v, StewardName: name})
	}
	return details, nil
}

func clientLookupError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "client not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
}
