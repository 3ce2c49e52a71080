// Package quorum decides when a client's vote is over and what the outcome is,
// and applies that outcome exactly once.
package quorum

import (
	"time"

	"govnet/internal/governance/models"
	"govnet/internal/governance/tally"
)

// DefaultVotingWindow is measured from the first vote.
const DefaultVotingWindow = 2 * time.Minute

// Trigger names the path that asked for a decision.
type Trigger string

const (
	// TriggerVote runs right after a vote is recorded.
	TriggerVote Trigger = "vote"
	// TriggerExpiry runs from the scheduler once the voting window has closed.
	TriggerExpiry Trigger = "expiry"
	// TriggerAbandoned runs from the scheduler for clients that never got a vote
	// within the absolute timeout.
	TriggerAbandoned Trigger = "abandoned"
)

// Rules holds the timing parameters of a decision.
type Rules struct {
	Window time.Duration
	// AbsoluteTimeout rejects zero-vote clients this long after creation.
	// Zero disables it.
	AbsoluteTimeout time.Duration
}

// DefaultRules returns the production voting window with no absolute timeout.
func DefaultRules() Rules {
	return Rules{Window: DefaultVotingWindow}
}

// Input is the state a decision is computed from.
type Input struct {
	Tally          tally.Tally
	ActiveStewards int
	FirstVoteAt    *time.Time
	CreatedAt      time.Time
	Now            time.Time
}

// Decision is the outcome of evaluating one client.
type Decision struct {
	Finalize bool
	Outcome  models.ClientStatus
	Reason   string

	HasMinParticipation bool
	AllVoted            bool
	Expired             bool
	Abandoned           bool
}

// Expired reports whether the voting window that opened at firstVoteAt has closed.
func (r Rules) Expired(firstVoteAt *time.Time, now time.Time) bool {
	if firstVoteAt == nil {
		return false
	}
	return now.After(firstVoteAt.Add(r.Window))
}

// Abandoned reports whether a client that never received a vote has outlived
// the absolute timeout.
func (r Rules) Abandoned(firstVoteAt *time.Time, createdAt, now time.Time) bool {
	if r.AbsoluteTimeout <= 0 || firstVoteAt != nil {
		return false
	}
	return now.After(createdAt.Add(r.AbsoluteTimeout))
}

// Decide evaluates the quorum rules.
//
// Participation needs at least half of the active stewards. Everyone voting
// closes the vote at once. After the window a vote-triggered evaluation
// closes only with enough participation, while the scheduler closes it
// regardless, so thin participation ends rejected. Approval needs at least
// two thirds of non-abstaining votes and the participation minimum.
func (r Rules) Decide(in Input, trigger Trigger) Decision {
	d := Decision{
		// total >= N * 0.5, kept in integers
		HasMinParticipation: 2*in.Tally.Total >= in.ActiveStewards,
		AllVoted:            in.Tally.Total >= in.ActiveStewards,
		Expired:             r.Expired(in.FirstVoteAt, in.Now),
		Abandoned:           r.Abandoned(in.FirstVoteAt, in.CreatedAt, in.Now),
	}

	switch trigger {
	case TriggerVote:
		d.Finalize = d.AllVoted || (d.Expired && d.HasMinParticipation)
	case TriggerExpiry:
		d.Finalize = d.Expired
	case TriggerAbandoned:
		d.Finalize = d.Abandoned
	}
	if !d.Finalize {
		d.Outcome = models.ClientStatusVoting
		return d
	}

	d.Outcome, d.Reason = outcome(in.Tally, d.HasMinParticipation)
	return d
}

func outcome(t tally.Tally, hasMin bool) (models.ClientStatus, string) {
	valid := t.Valid()
	if valid == 0 {
		return models.ClientStatusRejected, "no valid votes"
	}
	if !hasMin {
		return models.ClientStatusRejected, "insufficient participation"
	}
	// approve >= valid * 2/3, kept in integers
	if 3*t.Approve >= 2*valid {
		return models.ClientStatusApproved, "two-thirds majority reached"
	}
	return models.ClientStatusRejected, "two-thirds majority not reached"
}
