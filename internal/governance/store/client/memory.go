// Package client persists governance clients.
package client

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

// InMemory is a map-backed client store. Unique indexes on tax id, email and
// api key are enforced under one lock so every write is atomic.
type InMemory struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*models.Client
	byTaxID map[string]id.ClientID
	byEmail map[string]id.ClientID
	byKey   map[string]id.ClientID
}

func NewInMemory() *InMemory {
	return &InMemory{
		clients: make(map[id.ClientID]*models.Client),
		byTaxID: make(map[string]id.ClientID),
		byEmail: make(map[string]id.ClientID),
		byKey:   make(map[string]id.ClientID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; ok {
		return fmt.Errorf("client id: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byTaxID[c.TaxID]; ok {
		return fmt.Errorf("tax id: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byEmail[c.Email]; ok {
		return fmt.Errorf("email: %w", sentinel.ErrConflict)
	}
	stored := clone(c)
	s.clients[c.ID] = stored
	s.byTaxID[c.TaxID] = c.ID
	s.byEmail[c.Email] = c.ID
	if c.APIKey != "" {
		s.byKey[c.APIKey] = c.ID
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemory) FindByTaxID(_ context.Context, taxID string) (*models.Client, error) {
	return s.findBy(s.byTaxID, taxID)
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Client, error) {
	return s.findBy(s.byEmail, email)
}

func (s *InMemory) FindByAPIKey(_ context.Context, apiKey string) (*models.Client, error) {
	return s.findBy(s.byKey, apiKey)
}

func (s *InMemory) findBy(index map[string]id.ClientID, key string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clientID, ok := index[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.clients[clientID]), nil
}

// List returns clients matching filter, oldest first.
func (s *InMemory) List(_ context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if filter.Matches(c) {
			out = append(out, clone(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.Client) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// SetFirstVoteAt stamps first_vote_at only if it is still unset.
// Reports whether this call set it.
func (s *InMemory) SetFirstVoteAt(_ context.Context, clientID id.ClientID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if c.FirstVoteAt != nil {
		return false, nil
	}
	stamped := at
	c.FirstVoteAt = &stamped
	c.UpdatedAt = at
	return true, nil
}

// Finalize moves a voting client to status and stores apiKey in the same write.
func (s *InMemory) Finalize(_ context.Context, clientID id.ClientID, status models.ClientStatus, apiKey string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !c.Status.CanTransitionTo(status) || c.APIKey != "" {
		return sentinel.ErrStaleState
	}
	if apiKey != "" {
		if _, taken := s.byKey[apiKey]; taken {
			return fmt.Errorf("api key: %w", sentinel.ErrConflict)
		}
		c.APIKey = apiKey
		s.byKey[apiKey] = clientID
	}
	c.Status = status
	c.UpdatedAt = now
	return nil
}

func clone(c *models.Client) *models.Client {
	cp := *c
	if c.FirstVoteAt != nil {
		t := *c.FirstVoteAt
		cp.FirstVoteAt = &t
	}
	return &cp
}
