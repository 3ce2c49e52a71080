package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"govnet/internal/governance/models"
)

func votes(choices ...models.VoteChoice) []*models.Vote {
	out := make([]*models.Vote, 0, len(choices))
	for _, c := range choices {
		out = append(out, &models.Vote{Choice: c})
	}
	return out
}

func TestCount(t *testing.T) {
	cases := []struct {
		name  string
		votes []*models.Vote
		want  Tally
	}{
		{"empty", nil, Tally{}},
		{"mixed", votes(models.VoteApprove, models.VoteApprove, models.VoteReject, models.VoteAbstain),
			Tally{Total: 4, Approve: 2, Reject: 1, Abstain: 1}},
		{"abstain only", votes(models.VoteAbstain, models.VoteAbstain),
			Tally{Total: 2, Abstain: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Count(tc.votes)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got.Total, got.Approve+got.Reject+got.Abstain)
		})
	}
}

func TestValid(t *testing.T) {
	assert.Equal(t, 3, Tally{Total: 5, Approve: 2, Reject: 1, Abstain: 2}.Valid())
	assert.Zero(t, Tally{Total: 2, Abstain: 2}.Valid())
}
