package models

import (
	"strings"
	"time"

	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
)

// DefaultStewardRole is assigned when none is given.
const DefaultStewardRole = "steward"

// Steward is a network governor who votes on client admission.
// Only active stewards count toward the quorum and may vote.
type Steward struct {
	ID                id.StewardID  `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	Organization      string        `json:"organization"`
	Role              string        `json:"role"`
	Status            StewardStatus `json:"status"`
	SchemasCreated    int           `json:"schemas_created"`
	CredentialsIssued int           `json:"credentials_issued"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewSteward builds an active steward.
func NewSteward(stewardID id.StewardID, name, email, organization, role string, now time.Time) (*Steward, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "steward name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = DefaultStewardRole
	}
	return &Steward{
		ID:           stewardID,
		Name:         name,
		Email:        email,
		Organization: strings.TrimSpace(organization),
		Role:         role,
		Status:       StewardStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Steward) IsActive() bool {
	return s.Status == StewardStatusActive
}

// Deactivate removes the steward from the quorum denominator.
func (s *Steward) Deactivate(now time.Time) error {
	if !s.IsActive() {
		return dErrors.New(dErrors.CodeInvalidState, "steward is already inactive")
	}
	s.Status = StewardStatusInactive
	s.UpdatedAt = now
	return nil
}

// StewardStats summarizes the steward roster.
type StewardStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}
