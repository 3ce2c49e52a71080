// Package vote persists steward ballots. A ballot is immutable once written
// and at most one exists per (steward, client) pair.
package vote

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

type pairKey struct {
	steward id.StewardID
	client  id.ClientID
}

// InMemory keeps votes in insertion order with a unique pair index.
type InMemory struct {
	mu     sync.RWMutex
	votes  []*models.Vote
	byPair map[pairKey]int
}

func NewInMemory() *InMemory {
	return &InMemory{byPair: make(map[pairKey]int)}
}

// Create appends v, or returns ErrConflict when the steward already voted on the client.
func (s *InMemory) Create(_ context.Context, v *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{steward: v.StewardID, client: v.ClientID}
	if _, ok := s.byPair[key]; ok {
		return fmt.Errorf("vote pair: %w", sentinel.ErrConflict)
	}
	cp := *v
	s.votes = append(s.votes, &cp)
	s.byPair[key] = len(s.votes) - 1
	return nil
}

func (s *InMemory) FindByPair(_ context.Context, stewardID id.StewardID, clientID id.ClientID) (*models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byPair[pairKey{steward: stewardID, client: clientID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.votes[idx]
	return &cp, nil
}

// ListByClient returns the client's votes oldest first.
func (s *InMemory) ListByClient(_ context.Context, clientID id.ClientID) ([]*models.Vote, error) {
	return s.filter(func(v *models.Vote) bool { return v.ClientID == clientID }), nil
}

// ListBySteward returns the steward's votes oldest first.
func (s *InMemory) ListBySteward(_ context.Context, stewardID id.StewardID) ([]*models.Vote, error) {
	return s.filter(func(v *models.Vote) bool { return v.StewardID == stewardID }), nil
}

func (s *InMemory) CountBySteward(_ context.Context, stewardID id.StewardID) (int, error) {
	return len(s.filter(func(v *models.Vote) bool { return v.StewardID == stewardID })), nil
}

func (s *InMemory) filter(keep func(*models.Vote) bool) []*models.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Vote, 0)
	for _, v := range s.votes {
		if keep(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Vote) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}
