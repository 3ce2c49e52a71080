// Package tally counts steward ballots for one client.
package tally

import "govnet/internal/governance/models"

// Tally is the ballot count for one client.
type Tally struct {
	Total   int `json:"total_votes"`
	Approve int `json:"approve_votes"`
	Reject  int `json:"reject_votes"`
	Abstain int `json:"abstain_votes"`
}

// Count tallies votes. Votes with an unknown choice count toward Total only.
func Count(votes []*models.Vote) Tally {
	var t Tally
	for _, v := range votes {
		t.Total++
		switch v.Choice {
		case models.VoteApprove:
			t.Approve++
		case models.VoteReject:
			t.Reject++
		case models.VoteAbstain:
			t.Abstain++
		}
	}
	return t
}

// Valid is the number of non-abstaining votes.
func (t Tally) Valid() int {
	return t.Approve + t.Reject
}
