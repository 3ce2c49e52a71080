package service

import (
	"context"
	"errors"

	"govnet/internal/governance/events"
	"govnet/internal/governance/models"
	"govnet/internal/governance/quorum"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/sentinel"
	"govnet/pkg/requestcontext"
)

// VoteResult is a recorded ballot and the client state after evaluating it.
type VoteResult struct {
	Vote         *models.Vote        `json:"vote"`
	ClientStatus models.ClientStatus `json:"client_status"`
	Finalized    bool                `json:"finalized"`
}

// CastVote records a steward's ballot and re-evaluates the client's quorum.
//
// Checks run in order: client exists, client is voting, steward exists,
// steward is active, no earlier ballot for the pair. A rejected ballot
// leaves no trace.
func (s *Service) CastVote(ctx context.Context, req *models.CastVoteRequest) (*VoteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		return nil, clientLookupError(err)
	}
	if !c.IsVoting() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "client is not open for voting")
	}
	st, err := s.stewards.FindByID(ctx, req.StewardID)
	if err != nil {
		return nil, stewardLookupError(err)
	}
	if !st.IsActive() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "steward is not active")
	}
	if _, err := s.votes.FindByPair(ctx, req.StewardID, req.ClientID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "steward already voted on this client")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing vote")
	}

	now := requestcontext.Now(ctx)
	v, err := models.NewVote(id.NewVoteID(), req.StewardID, req.ClientID, req.Vote, req.Comment, now)
	if err != nil {
		return nil, err
	}
	// The window anchor goes first: a stamp without a ballot only opens the
	// window, a ballot without a stamp could never expire.
	if _, err := s.clients.SetFirstVoteAt(ctx, req.ClientID, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stamp first vote")
	}
	if err := s.votes.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "steward already voted on this client")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	s.metrics.IncVoteCast(string(v.Choice))
	s.logger.InfoContext(ctx, "vote cast",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", req.ClientID.String(),
		"steward_id", req.StewardID.String(),
		"vote", string(v.Choice),
	)
	s.emit(ctx, events.Event{Type: events.VoteCast, ClientID: req.ClientID, StewardID: req.StewardID, Outcome: string(v.Choice)})

	res, err := s.engine.Evaluate(ctx, req.ClientID, quorum.TriggerVote)
	if err != nil {
		// The ballot is stored; the scheduler re-evaluates on its next sweep.
		s.logger.ErrorContext(ctx, "quorum evaluation after vote failed",
			"request_id", requestcontext.RequestID(ctx),
			"client_id", req.ClientID.String(),
			"error", err,
		)
		return &VoteResult{Vote: v, ClientStatus: models.ClientStatusVoting}, nil
	}
	return &VoteResult{Vote: v, ClientStatus: res.Status, Finalized: res.Finalized}, nil
}
