package models

import (
	"net/url"
	"strings"
	"time"

	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
)

// Registration records an approved client's DID written to the ledger.
// ClientID, DID and Verkey are each unique and never change; only
// LedgerStatus may be updated afterwards.
type Registration struct {
	ID           id.RegistrationID `json:"id"`
	ClientID     id.ClientID       `json:"client_id"`
	DID          string            `json:"did"`
	Verkey       string            `json:"verkey"`
	AdminURL     string            `json:"admin_url"`
	Role         LedgerRole        `json:"role"`
	Alias        string            `json:"alias"`
	LedgerStatus LedgerStatus      `json:"ledger_status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// RegistrationRequest is the caller-provided identity triple.
type RegistrationRequest struct {
	DID      string `json:"did"`
	Verkey   string `json:"verkey"`
	AdminURL string `json:"admin_url"`
}

// Validate checks the identity triple is well formed.
func (r *RegistrationRequest) Validate() error {
	r.DID = strings.TrimSpace(r.DID)
	r.Verkey = strings.TrimSpace(r.Verkey)
	r.AdminURL = strings.TrimSpace(r.AdminURL)
	if r.DID == "" || r.Verkey == "" || r.AdminURL == "" {
		return dErrors.New(dErrors.CodeValidation, "did, verkey and admin_url are required")
	}
	if len(r.DID) > 256 || len(r.Verkey) > 256 {
		return dErrors.New(dErrors.CodeValidation, "did and verkey must be 256 characters or less")
	}
	u, err := url.Parse(r.AdminURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, "admin_url must be an absolute http(s) URL")
	}
	return nil
}
