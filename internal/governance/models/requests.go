package models

import (
	"strings"

	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
)

// RegisterClientRequest is an organization's admission request.
type RegisterClientRequest struct {
	CompanyName   string     `json:"company_name"`
	TaxID         string     `json:"tax_id"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	Role          ClientRole `json:"role"`
	Justification string     `json:"justification"`
}

// Validate trims input and checks the fields NewClient does not.
func (r *RegisterClientRequest) Validate() error {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.Role = ClientRole(strings.ToLower(strings.TrimSpace(string(r.Role))))
	r.Justification = strings.TrimSpace(r.Justification)

	if r.CompanyName == "" || r.TaxID == "" || r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "company_name, tax_id and email are required")
	}
	if !taxIDPattern.MatchString(r.TaxID) {
		return dErrors.New(dErrors.CodeValidation, "tax id must contain exactly 14 digits")
	}
	if !emailPattern.MatchString(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if !r.Role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be one of issuer, verifier, both")
	}
	return nil
}

// CreateStewardRequest adds a steward to the roster.
type CreateStewardRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

func (r *CreateStewardRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Organization = strings.TrimSpace(r.Organization)
	r.Role = strings.TrimSpace(r.Role)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "steward name cannot be empty")
	}
	if !emailPattern.MatchString(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return nil
}

// CastVoteRequest is one steward's ballot on one client.
type CastVoteRequest struct {
	StewardID id.StewardID `json:"steward_id"`
	ClientID  id.ClientID  `json:"client_id"`
	Vote      VoteChoice   `json:"vote"`
	Comment   string       `json:"comment"`
}

func (r *CastVoteRequest) Validate() error {
	r.Vote = VoteChoice(strings.ToLower(strings.TrimSpace(string(r.Vote))))
	r.Comment = strings.TrimSpace(r.Comment)
	if r.StewardID.IsNil() || r.ClientID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "steward_id and client_id are required")
	}
	if !r.Vote.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "vote must be one of approve, reject, abstain")
	}
	if len(r.Comment) > maxCommentLength {
		return dErrors.New(dErrors.CodeValidation, "comment is too long")
	}
	return nil
}

// UpdateLedgerStatusRequest changes a registration's ledger status.
type UpdateLedgerStatusRequest struct {
	Status LedgerStatus `json:"ledger_status"`
}

func (r *UpdateLedgerStatusRequest) Validate() error {
	r.Status = LedgerStatus(strings.ToLower(strings.TrimSpace(string(r.Status))))
	if !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "ledger_status must be one of registered, revoked, suspended")
	}
	return nil
}
