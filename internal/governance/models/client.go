package models

import (
	"regexp"
	"strings"
	"time"

	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
)

var (
	taxIDPattern = regexp.MustCompile(`^\d{14}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Client is an organization requesting admission to the network.
//
// Invariants:
//   - TaxID is exactly 14 digits and unique across clients
//   - Email is unique across clients
//   - Status moves only voting -> approved or voting -> rejected
//   - APIKey is set if and only if Status is approved, and is never replaced
//   - FirstVoteAt is set at most once
type Client struct {
	ID            id.ClientID  `json:"id"`
	CompanyName   string       `json:"company_name"`
	TaxID         string       `json:"tax_id"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	Role          ClientRole   `json:"role"`
	Justification string       `json:"justification,omitempty"`
	Status        ClientStatus `json:"status"`
	APIKey        string       `json:"api_key,omitempty"`
	FirstVoteAt   *time.Time   `json:"first_vote_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewClient builds a client in the voting state.
func NewClient(
	clientID id.ClientID,
	companyName, taxID, email, phone, address string,
	role ClientRole,
	justification string,
	now time.Time,
) (*Client, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company name cannot be empty")
	}
	if len(companyName) > 256 {
		return nil, dErrors.New(dErrors.CodeValidation, "company name must be 256 characters or less")
	}
	if !taxIDPattern.MatchString(taxID) {
		return nil, dErrors.New(dErrors.CodeValidation, "tax id must contain exactly 14 digits")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of issuer, verifier, both")
	}
	return &Client{
		ID:            clientID,
		CompanyName:   companyName,
		TaxID:         taxID,
		Email:         email,
		Phone:         strings.TrimSpace(phone),
		Address:       strings.TrimSpace(address),
		Role:          role,
		Justification: strings.TrimSpace(justification),
		Status:        ClientStatusVoting,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (c *Client) IsVoting() bool {
	return c.Status == ClientStatusVoting
}

func (c *Client) IsApproved() bool {
	return c.Status == ClientStatusApproved
}

// VotingDeadline returns first_vote_at + window, or false when no vote was cast yet.
func (c *Client) VotingDeadline(window time.Duration) (time.Time, bool) {
	if c.FirstVoteAt == nil {
		return time.Time{}, false
	}
	return c.FirstVoteAt.Add(window), true
}

// Matches reports whether term is a case-insensitive substring of the
// company name, email or tax id.
func (c *Client) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.CompanyName), term) ||
		strings.Contains(c.Email, term) ||
		strings.Contains(c.TaxID, term)
}

// ClientFilter narrows client listings. Zero fields match everything.
type ClientFilter struct {
	Status ClientStatus
	Role   ClientRole
	Search string
}

// Matches applies every populated field of the filter.
func (f ClientFilter) Matches(c *Client) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Role != "" && c.Role != f.Role {
		return false
	}
	return c.Matches(f.Search)
}

// ClientStats summarizes the client population.
type ClientStats struct {
	Total     int `json:"total"`
	Voting    int `json:"voting"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Issuers   int `json:"issuers"`
	Verifiers int `json:"verifiers"`
	Both      int `json:"both"`
}

// Add counts one client.
func (s *ClientStats) Add(c *Client) {
	s.Total++
	switch c.Status {
	case ClientStatusVoting:
		s.Voting++
	case ClientStatusApproved:
		s.Approved++
	case ClientStatusRejected:
		s.Rejected++
	}
	switch c.Role {
	case ClientRoleIssuer:
		s.Issuers++
	case ClientRoleVerifier:
		s.Verifiers++
	case ClientRoleBoth:
		s.Both++
	}
}
