package models

import (
	"strings"
	"time"

	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
)

// maxCommentLength bounds free-text vote comments.
const maxCommentLength = 2000

// Vote is one steward's immutable ballot on one client.
// At most one vote exists per (steward, client) pair.
type Vote struct {
	ID        id.VoteID    `json:"id"`
	StewardID id.StewardID `json:"steward_id"`
	ClientID  id.ClientID  `json:"client_id"`
	Choice    VoteChoice   `json:"vote"`
	Comment   string       `json:"comment,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewVote(voteID id.VoteID, stewardID id.StewardID, clientID id.ClientID, choice VoteChoice, comment string, now time.Time) (*Vote, error) {
	if !choice.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "vote must be one of approve, reject, abstain")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, dErrors.New(dErrors.CodeValidation, "comment is too long")
	}
	return &Vote{
		ID:        voteID,
		StewardID: stewardID,
		ClientID:  clientID,
		Choice:    choice,
		Comment:   comment,
		CreatedAt: now,
	}, nil
}
