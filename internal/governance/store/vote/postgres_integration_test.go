//go:build integration

package vote_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"govnet/internal/governance/models"
	"govnet/internal/governance/store/vote"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
	"govnet/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *vote.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = vote.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "ledger_registrations", "votes", "clients", "stewards")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedClient(ctx context.Context, taxID string) id.ClientID {
	clientID := id.NewClientID()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO clients (id, company_name, tax_id, email, role, status, created_at, updated_at)
		VALUES ($1, 'Acme', $2, $3, 'issuer', 'voting', NOW(), NOW())
	`, uuid.UUID(clientID), taxID, taxID+"@acme.com")
	s.Require().NoError(err)
	return clientID
}

func (s *PostgresStoreSuite) seedSteward(ctx context.Context) id.StewardID {
	stewardID := id.NewStewardID()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO stewards (id, name, email, role, status, created_at, updated_at)
		VALUES ($1, 'Steward', $2, 'steward', 'active', NOW(), NOW())
	`, uuid.UUID(stewardID), uuid.NewString()+"@governance.com")
	s.Require().NoError(err)
	return stewardID
}

func (s *PostgresStoreSuite) TestCreateAndList() {
	ctx := context.Background()
	clientID := s.seedClient(ctx, "11222333000181")
	stewardA := s.seedSteward(ctx)
	stewardB := s.seedSteward(ctx)
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := &models.Vote{ID: id.NewVoteID(), StewardID: stewardA, ClientID: clientID, Choice: models.VoteApprove, Comment: "ok", CreatedAt: now}
	second := &models.Vote{ID: id.NewVoteID(), StewardID: stewardB, ClientID: clientID, Choice: models.VoteAbstain, CreatedAt: now.Add(time.Second)}
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	dup := &models.Vote{ID: id.NewVoteID(), StewardID: stewardA, ClientID: clientID, Choice: models.VoteReject, CreatedAt: now}
	s.ErrorIs(s.store.Create(ctx, dup), sentinel.ErrConflict)

	votes, err := s.store.ListByClient(ctx, clientID)
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	s.Equal(first.ID, votes[0].ID)
	s.Equal("ok", votes[0].Comment)

	found, err := s.store.FindByPair(ctx, stewardB, clientID)
	s.Require().NoError(err)
	s.Equal(models.VoteAbstain, found.Choice)

	count, err := s.store.CountBySteward(ctx, stewardA)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestUnknownReferences() {
	ctx := context.Background()
	v := &models.Vote{ID: id.NewVoteID(), StewardID: id.NewStewardID(), ClientID: id.NewClientID(), Choice: models.VoteApprove, CreatedAt: time.Now().UTC()}
	s.ErrorIs(s.store.Create(ctx, v), sentinel.ErrNotFound)
}
