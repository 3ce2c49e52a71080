// Package steward persists network stewards.
package steward

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

// InMemory is a map-backed steward store with a unique email index.
type InMemory struct {
	mu       sync.RWMutex
	stewards map[id.StewardID]*models.Steward
	byEmail  map[string]id.StewardID
}

func NewInMemory() *InMemory {
	return &InMemory{
		stewards: make(map[id.StewardID]*models.Steward),
		byEmail:  make(map[string]id.StewardID),
	}
}

func (s *InMemory) Create(_ context.Context, st *models.Steward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stewards[st.ID]; ok {
		return fmt.Errorf("steward id: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byEmail[st.Email]; ok {
		return fmt.Errorf("steward email: %w", sentinel.ErrConflict)
	}
	cp := *st
	s.stewards[st.ID] = &cp
	s.byEmail[st.Email] = st.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, stewardID id.StewardID) (*models.Steward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stewards[stewardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Steward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stewardID, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.stewards[stewardID]
	return &cp, nil
}

// List returns stewards oldest first, optionally only active ones.
func (s *InMemory) List(_ context.Context, activeOnly bool) ([]*models.Steward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Steward, 0, len(s.stewards))
	for _, st := range s.stewards {
		if activeOnly && !st.IsActive() {
			continue
		}
		cp := *st
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Steward) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Email, b.Email)
	})
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stewards), nil
}

// CountActive returns the quorum denominator.
func (s *InMemory) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.stewards {
		if st.IsActive() {
			n++
		}
	}
	return n, nil
}

// Update overwrites mutable fields (status, counters).
func (s *InMemory) Update(_ context.Context, st *models.Steward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.stewards[st.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Status = st.Status
	existing.SchemasCreated = st.SchemasCreated
	existing.CredentialsIssued = st.CredentialsIssued
	existing.UpdatedAt = st.UpdatedAt
	return nil
}

func (s *InMemory) Delete(_ context.Context, stewardID id.StewardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stewards[stewardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, st.Email)
	delete(s.stewards, stewardID)
	return nil
}
