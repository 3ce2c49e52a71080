// Package registration persists ledger registrations of approved clients.
package registration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

// InMemory enforces one registration per client and unique DID and verkey.
type InMemory struct {
	mu       sync.RWMutex
	records  map[id.RegistrationID]*models.Registration
	byClient map[id.ClientID]id.RegistrationID
	byDID    map[string]id.RegistrationID
	byVerkey map[string]id.RegistrationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		records:  make(map[id.RegistrationID]*models.Registration),
		byClient: make(map[id.ClientID]id.RegistrationID),
		byDID:    make(map[string]id.RegistrationID),
		byVerkey: make(map[string]id.RegistrationID),
	}
}

func (s *InMemory) Create(_ context.Context, r *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byClient[r.ClientID]; ok {
		return fmt.Errorf("registration client: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byDID[r.DID]; ok {
		return fmt.Errorf("registration did: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byVerkey[r.Verkey]; ok {
		return fmt.Errorf("registration verkey: %w", sentinel.ErrConflict)
	}
	cp := *r
	s.records[r.ID] = &cp
	s.byClient[r.ClientID] = r.ID
	s.byDID[r.DID] = r.ID
	s.byVerkey[r.Verkey] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(registrationID, true)
}

func (s *InMemory) FindByClientID(_ context.Context, clientID id.ClientID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registrationID, ok := s.byClient[clientID]
	return s.get(registrationID, ok)
}

func (s *InMemory) FindByDID(_ context.Context, did string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registrationID, ok := s.byDID[did]
	return s.get(registrationID, ok)
}

func (s *InMemory) FindByVerkey(_ context.Context, verkey string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registrationID, ok := s.byVerkey[verkey]
	return s.get(registrationID, ok)
}

func (s *InMemory) get(registrationID id.RegistrationID, indexed bool) (*models.Registration, error) {
	if !indexed {
		return nil, sentinel.ErrNotFound
	}
	r, ok := s.records[registrationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// UpdateStatus changes only the ledger status; identity fields are immutable.
func (s *InMemory) UpdateStatus(_ context.Context, registrationID id.RegistrationID, status models.LedgerStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[registrationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.LedgerStatus = status
	r.UpdatedAt = now
	return nil
}
