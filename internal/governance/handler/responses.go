package handler

import (
	"time"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
)

// ClientResponse is the public view of a client. The API key is only
// served by the admin route.
type ClientResponse struct {
	ID            id.ClientID         `json:"id"`
	CompanyName   string              `json:"company_name"`
	TaxID         string              `json:"tax_id"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone,omitempty"`
	Address       string              `json:"address,omitempty"`
	Role          models.ClientRole   `json:"role"`
	Justification string              `json:"justification,omitempty"`
	Status        models.ClientStatus `json:"status"`
	HasAPIKey     bool                `json:"has_api_key"`
	FirstVoteAt   *time.Time          `json:"first_vote_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toClientResponse(c *models.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		CompanyName:   c.CompanyName,
		TaxID:         c.TaxID,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		Role:          c.Role,
		Justification: c.Justification,
		Status:        c.Status,
		HasAPIKey:     c.APIKey != "",
		FirstVoteAt:   c.FirstVoteAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toClientResponses(list []*models.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClientResponse(c))
	}
	return out
}

// APIKeyResponse carries a client's minted key.
type APIKeyResponse struct {
	ClientID id.ClientID `json:"client_id"`
	APIKey   string      `json:"api_key"`
}

// ListResponse wraps collections with their size.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
