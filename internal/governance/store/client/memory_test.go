package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

type ClientStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	seq   int
}

func (s *ClientStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestClientStoreSuite(t *testing.T) {
	suite.Run(t, new(ClientStoreSuite))
}

func (s *ClientStoreSuite) newClient() *models.Client {
	s.seq++
	now := time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	return &models.Client{
		ID:          id.NewClientID(),
		CompanyName: fmt.Sprintf("Company %d", s.seq),
		TaxID:       fmt.Sprintf("%014d", s.seq),
		Email:       fmt.Sprintf("contact%d@example.com", s.seq),
		Role:        models.ClientRoleIssuer,
		Status:      models.ClientStatusVoting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TestUniqueness verifies tax id and email are unique across clients.
func (s *ClientStoreSuite) TestUniqueness() {
	s.Run("duplicate tax id conflicts", func() {
		first := s.newClient()
		s.Require().NoError(s.store.Create(s.ctx, first))

		dup := s.newClient()
		dup.TaxID = first.TaxID
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("duplicate email conflicts", func() {
		first := s.newClient()
		s.Require().NoError(s.store.Create(s.ctx, first))

		dup := s.newClient()
		dup.Email = first.Email
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *ClientStoreSuite) TestLookups() {
	c := s.newClient()
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Run("finds by tax id and email", func() {
		found, err := s.store.FindByTaxID(s.ctx, c.TaxID)
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)

		found, err = s.store.FindByEmail(s.ctx, c.Email)
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewClientID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned copies do not alias storage", func() {
		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		found.Status = models.ClientStatusApproved

		again, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.ClientStatusVoting, again.Status)
	})
}

func (s *ClientStoreSuite) TestList() {
	a := s.newClient()
	b := s.newClient()
	b.Role = models.ClientRoleVerifier
	b.CompanyName = "Verify Corp"
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))
	s.Require().NoError(s.store.Finalize(s.ctx, a.ID, models.ClientStatusRejected, "", time.Now()))

	all, err := s.store.List(s.ctx, models.ClientFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(a.ID, all[0].ID, "oldest first")

	voting, err := s.store.List(s.ctx, models.ClientFilter{Status: models.ClientStatusVoting})
	s.Require().NoError(err)
	s.Require().Len(voting, 1)
	s.Equal(b.ID, voting[0].ID)

	search, err := s.store.List(s.ctx, models.ClientFilter{Search: "verify"})
	s.Require().NoError(err)
	s.Require().Len(search, 1)
	s.Equal(b.ID, search[0].ID)
}

func (s *ClientStoreSuite) TestSetFirstVoteAt() {
	c := s.newClient()
	s.Require().NoError(s.store.Create(s.ctx, c))

	first := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	set, err := s.store.SetFirstVoteAt(s.ctx, c.ID, first)
	s.Require().NoError(err)
	s.True(set)

	set, err = s.store.SetFirstVoteAt(s.ctx, c.ID, first.Add(time.Minute))
	s.Require().NoError(err)
	s.False(set, "first_vote_at is written once")

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.FirstVoteAt)
	s.True(first.Equal(*found.FirstVoteAt))

	_, err = s.store.SetFirstVoteAt(s.ctx, id.NewClientID(), first)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestFinalize verifies the conditional status write.
func (s *ClientStoreSuite) TestFinalize() {
	s.Run("approve stores key in same write", func() {
		c := s.newClient()
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.Require().NoError(s.store.Finalize(s.ctx, c.ID, models.ClientStatusApproved, "gov_key1", time.Now()))

		found, err := s.store.FindByAPIKey(s.ctx, "gov_key1")
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
		s.Equal(models.ClientStatusApproved, found.Status)
	})

	s.Run("terminal client is stale", func() {
		c := s.newClient()
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.Require().NoError(s.store.Finalize(s.ctx, c.ID, models.ClientStatusRejected, "", time.Now()))

		err := s.store.Finalize(s.ctx, c.ID, models.ClientStatusApproved, "gov_key2", time.Now())
		s.ErrorIs(err, sentinel.ErrStaleState)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.ClientStatusRejected, found.Status)
		s.Empty(found.APIKey)
	})

	s.Run("unknown client", func() {
		err := s.store.Finalize(s.ctx, id.NewClientID(), models.ClientStatusRejected, "", time.Now())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentFinalize verifies exactly one finalizer wins.
func (s *ClientStoreSuite) TestConcurrentFinalize() {
	c := s.newClient()
	s.Require().NoError(s.store.Create(s.ctx, c))

	const goroutines = 50
	var (
		wg      sync.WaitGroup
		success atomic.Int32
		stale   atomic.Int32
	)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Finalize(s.ctx, c.ID, models.ClientStatusApproved, fmt.Sprintf("gov_%d", i), time.Now())
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, sentinel.ErrStaleState):
				stale.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), success.Load())
	s.Equal(int32(goroutines-1), stale.Load())
}
