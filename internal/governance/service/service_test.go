package service_test

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks LedgerAgent,EventPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"govnet/internal/agent"
	"govnet/internal/governance/events"
	"govnet/internal/governance/metrics"
	"govnet/internal/governance/models"
	"govnet/internal/governance/quorum"
	"govnet/internal/governance/service"
	"govnet/internal/governance/service/mocks"
	clientstore "govnet/internal/governance/store/client"
	registrationstore "govnet/internal/governance/store/registration"
	stewardstore "govnet/internal/governance/store/steward"
	votestore "govnet/internal/governance/store/vote"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	agent         *mocks.MockLedgerAgent
	sink          *events.MemorySink
	clients       *clientstore.InMemory
	stewards      *stewardstore.InMemory
	votes         *votestore.InMemory
	registrations *registrationstore.InMemory
	service       *service.Service
	t0            time.Time
	seq           int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.agent = mocks.NewMockLedgerAgent(s.ctrl)
	s.sink = events.NewMemorySink()
	s.clients = clientstore.NewInMemory()
	s.stewards = stewardstore.NewInMemory()
	s.votes = votestore.NewInMemory()
	s.registrations = registrationstore.NewInMemory()
	s.t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	publisher := events.NewPublisher(events.WithLogger(logger), events.WithSink(s.sink))
	engine := quorum.NewEngine(s.clients, s.votes, s.stewards,
		quorum.WithLogger(logger),
		quorum.WithMetrics(m),
		quorum.WithPublisher(publisher),
	)
	s.service = service.New(s.clients, s.stewards, s.votes, s.registrations, engine,
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithPublisher(publisher),
		service.WithLedgerAgent(s.agent),
	)

	created, err := s.service.SeedStewards(s.at(0), service.DefaultRoster)
	s.Require().NoError(err)
	s.Require().Equal(5, created)
}

func (s *ServiceSuite) at(d time.Duration) context.Context {
	return testutil.At(s.t0.Add(d))
}

func (s *ServiceSuite) roster() []*models.Steward {
	list, err := s.service.ListStewards(s.at(0), true)
	s.Require().NoError(err)
	return list
}

func (s *ServiceSuite) registerClient(role models.ClientRole) *models.Client {
	s.seq++
	c, err := s.service.RegisterClient(s.at(0), &models.RegisterClientRequest{
		CompanyName: fmt.Sprintf("Company %d", s.seq),
		TaxID:       fmt.Sprintf("%014d", s.seq),
		Email:       fmt.Sprintf("contact%d@company.com", s.seq),
		Role:        role,
	})
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) vote(at time.Duration, st *models.Steward, clientID id.ClientID, choice models.VoteChoice) (*service.VoteResult, error) {
	return s.service.CastVote(s.at(at), &models.CastVoteRequest{StewardID: st.ID, ClientID: clientID, Vote: choice})
}

// approvedClient runs a unanimous vote so the client holds an api key.
func (s *ServiceSuite) approvedClient(role models.ClientRole) *models.Client {
	c := s.registerClient(role)
	for i, st := range s.roster() {
		_, err := s.vote(time.Duration(i)*time.Second, st, c.ID, models.VoteApprove)
		s.Require().NoError(err)
	}
	approved, err := s.service.GetClient(s.at(0), c.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.ClientStatusApproved, approved.Status)
	return approved
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.Require().Equal(code, dErrors.CodeOf(err), err.Error())
}

func (s *ServiceSuite) TestRegisterClient() {
	c := s.registerClient(models.ClientRoleIssuer)
	s.Equal(models.ClientStatusVoting, c.Status)
	s.Empty(c.APIKey)

	s.Run("duplicate tax id conflicts", func() {
		_, err := s.service.RegisterClient(s.at(0), &models.RegisterClientRequest{
			CompanyName: "Other", TaxID: c.TaxID, Email: "other@company.com", Role: models.ClientRoleVerifier,
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.service.RegisterClient(s.at(0), &models.RegisterClientRequest{
			CompanyName: "Other", TaxID: "99999999999999", Email: c.Email, Role: models.ClientRoleVerifier,
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("invalid tax id is a validation error", func() {
		_, err := s.service.RegisterClient(s.at(0), &models.RegisterClientRequest{
			CompanyName: "Other", TaxID: "12.345.678/0001-90", Email: "x@company.com", Role: models.ClientRoleBoth,
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("lookup by tax id", func() {
		found, err := s.service.GetClientByTaxID(s.at(0), c.TaxID)
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
	})
}

func (s *ServiceSuite) TestSeedStewardsRunsOnce() {
	created, err := s.service.SeedStewards(s.at(0), service.DefaultRoster)
	s.Require().NoError(err)
	s.Zero(created)

	stats, err := s.service.StewardStatistics(s.at(0))
	s.Require().NoError(err)
	s.Equal(models.StewardStats{Total: 5, Active: 5}, *stats)
}

// TestUnanimousApproval is scenario 1: five approvals close the vote at once.
func (s *ServiceSuite) TestUnanimousApproval() {
	c := s.registerClient(models.ClientRoleIssuer)
	var last *service.VoteResult
	for i, st := range s.roster() {
		res, err := s.vote(time.Duration(i)*time.Second, st, c.ID, models.VoteApprove)
		s.Require().NoError(err)
		last = res
		if i < 4 {
			s.Equal(models.ClientStatusVoting, res.ClientStatus)
		}
	}
	s.True(last.Finalized)
	s.Equal(models.ClientStatusApproved, last.ClientStatus)

	approved, err := s.service.GetClient(s.at(0), c.ID)
	s.Require().NoError(err)
	s.NotEmpty(approved.APIKey)
	s.Require().NotNil(approved.FirstVoteAt)
	s.Equal(s.t0, *approved.FirstVoteAt, "first vote time is stamped once")
}

// TestVoteGating covers the ordered checks; every rejection leaves no ballot.
func (s *ServiceSuite) TestVoteGating() {
	stewards := s.roster()

	s.Run("unknown client", func() {
		_, err := s.vote(0, stewards[0], id.NewClientID(), models.VoteApprove)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("unknown steward", func() {
		c := s.registerClient(models.ClientRoleIssuer)
		_, err := s.vote(0, &models.Steward{ID: id.NewStewardID()}, c.ID, models.VoteApprove)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("duplicate ballot", func() {
		c := s.registerClient(models.ClientRoleIssuer)
		_, err := s.vote(0, stewards[0], c.ID, models.VoteApprove)
		s.Require().NoError(err)
		_, err = s.vote(time.Second, stewards[0], c.ID, models.VoteReject)
		s.requireCode(err, dErrors.CodeConflict)

		votes, err := s.votes.ListByClient(context.Background(), c.ID)
		s.Require().NoError(err)
		s.Require().Len(votes, 1)
		s.Equal(models.VoteApprove, votes[0].Choice)
	})

	s.Run("inactive steward", func() {
		c := s.registerClient(models.ClientRoleIssuer)
		_, err := s.service.DeactivateSteward(s.at(0), stewards[4].ID)
		s.Require().NoError(err)
		_, err = s.vote(0, stewards[4], c.ID, models.VoteApprove)
		s.requireCode(err, dErrors.CodeInvalidState)
	})

	// scenario 5
	s.Run("client already approved", func() {
		c := s.registerClient(models.ClientRoleIssuer)
		for _, st := range stewards[:4] {
			_, err := s.vote(0, st, c.ID, models.VoteApprove)
			s.Require().NoError(err)
		}
		approved, err := s.service.GetClient(s.at(0), c.ID)
		s.Require().NoError(err)
		s.Require().Equal(models.ClientStatusApproved, approved.Status, "four active stewards all voted")

		_, err = s.vote(time.Second, stewards[4], c.ID, models.VoteApprove)
		s.requireCode(err, dErrors.CodeInvalidState)

		votes, err := s.votes.ListByClient(context.Background(), c.ID)
		s.Require().NoError(err)
		s.Len(votes, 4)
	})
}

func (s *ServiceSuite) TestVotingDetails() {
	c := s.registerClient(models.ClientRoleVerifier)
	stewards := s.roster()
	_, err := s.vote(0, stewards[0], c.ID, models.VoteApprove)
	s.Require().NoError(err)
	_, err = s.vote(time.Second, stewards[1], c.ID, models.VoteAbstain)
	s.Require().NoError(err)

	// A ballot whose steward left the roster.
	orphan := &models.Vote{ID: id.NewVoteID(), StewardID: id.NewStewardID(), ClientID: c.ID, Choice: models.VoteReject, CreatedAt: s.t0.Add(2 * time.Second)}
	s.Require().NoError(s.votes.Create(context.Background(), orphan))

	details, err := s.service.VotingDetails(s.at(0), c.ID)
	s.Require().NoError(err)
	s.Equal(3, details.Tally.Total)
	s.Equal(1, details.Tally.Approve)
	s.Equal(1, details.Tally.Reject)
	s.Equal(1, details.Tally.Abstain)
	s.Require().NotNil(details.VotingDeadline)
	s.Equal(s.t0.Add(quorum.DefaultVotingWindow), *details.VotingDeadline)
	s.Require().Len(details.Votes, 3)
	s.Equal(stewards[0].Name, details.Votes[0].StewardName)
	s.Equal("unknown", details.Votes[2].StewardName)
}

func (s *ServiceSuite) TestDeleteSteward() {
	stewards := s.roster()
	c := s.registerClient(models.ClientRoleIssuer)
	_, err := s.vote(0, stewards[0], c.ID, models.VoteApprove)
	s.Require().NoError(err)

	s.requireCode(s.service.DeleteSteward(s.at(0), stewards[0].ID), dErrors.CodeInvalidState)
	s.Require().NoError(s.service.DeleteSteward(s.at(0), stewards[1].ID))
	s.requireCode(s.service.DeleteSteward(s.at(0), stewards[1].ID), dErrors.CodeNotFound)

	votes, err := s.service.StewardVotes(s.at(0), stewards[0].ID)
	s.Require().NoError(err)
	s.Len(votes, 1)
}

func (s *ServiceSuite) TestClientQueries() {
	issuer := s.registerClient(models.ClientRoleIssuer)
	s.registerClient(models.ClientRoleVerifier)
	s.approvedClient(models.ClientRoleBoth)

	voting, err := s.service.ListClients(s.at(0), models.ClientFilter{Status: models.ClientStatusVoting})
	s.Require().NoError(err)
	s.Len(voting, 2)

	found, err := s.service.ListClients(s.at(0), models.ClientFilter{Search: issuer.Email})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(issuer.ID, found[0].ID)

	_, err = s.service.ListClients(s.at(0), models.ClientFilter{Status: "pending"})
	s.requireCode(err, dErrors.CodeValidation)

	stats, err := s.service.ClientStatistics(s.at(0))
	s.Require().NoError(err)
	s.Equal(models.ClientStats{Total: 3, Voting: 2, Approved: 1, Issuers: 1, Verifiers: 1, Both: 1}, *stats)
}

// TestLedgerGate covers scenario 6 and the ordered registration checks.
func (s *ServiceSuite) TestLedgerGate() {
	req := func(did, verkey string) *models.RegistrationRequest {
		return &models.RegistrationRequest{DID: did, Verkey: verkey, AdminURL: "http://agent.company.com:8021"}
	}

	s.Run("unknown client", func() {
		_, err := s.service.RegisterOnLedger(s.at(0), id.NewClientID(), req("did:sov:x", "vk-x"))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("client still voting", func() {
		c := s.registerClient(models.ClientRoleIssuer)
		_, err := s.service.RegisterOnLedger(s.at(0), c.ID, req("did:sov:v", "vk-v"))
		s.requireCode(err, dErrors.CodeInvalidState)
	})

	first := s.approvedClient(models.ClientRoleIssuer)
	second := s.approvedClient(models.ClientRoleVerifier)

	s.Run("issuer registers as endorser", func() {
		s.agent.EXPECT().
			RegisterNym(gomock.Any(), agent.NymRequest{DID: "did:sov:one", Verkey: "vk-one", Alias: first.CompanyName, Role: "ENDORSER"}).
			Return(nil)

		reg, err := s.service.RegisterOnLedger(s.at(0), first.ID, req("did:sov:one", "vk-one"))
		s.Require().NoError(err)
		s.Equal(models.LedgerRoleEndorser, reg.Role)
		s.Equal(models.LedgerStatusRegistered, reg.LedgerStatus)
		s.Equal(first.CompanyName, reg.Alias)
	})

	s.Run("second registration for the client conflicts", func() {
		_, err := s.service.RegisterOnLedger(s.at(0), first.ID, req("did:sov:other", "vk-other"))
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("same DID for another client conflicts", func() {
		_, err := s.service.RegisterOnLedger(s.at(0), second.ID, req("did:sov:one", "vk-two"))
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("same verkey under a new DID conflicts before the agent is called", func() {
		s.agent.EXPECT().RegisterNym(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.RegisterOnLedger(s.at(0), second.ID, req("did:sov:fresh", "vk-one"))
		s.requireCode(err, dErrors.CodeConflict)

		_, err = s.service.ClientRegistration(s.at(0), second.ID)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("agent failure writes nothing", func() {
		s.agent.EXPECT().RegisterNym(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		_, err := s.service.RegisterOnLedger(s.at(0), second.ID, req("did:sov:two", "vk-two"))
		s.requireCode(err, dErrors.CodeLedger)

		_, err = s.service.ClientRegistration(s.at(0), second.ID)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("verifier registers without a role", func() {
		s.agent.EXPECT().
			RegisterNym(gomock.Any(), agent.NymRequest{DID: "did:sov:two", Verkey: "vk-two", Alias: second.CompanyName}).
			Return(nil)

		reg, err := s.service.RegisterOnLedger(s.at(0), second.ID, req("did:sov:two", "vk-two"))
		s.Require().NoError(err)
		s.Equal(models.LedgerRoleNone, reg.Role)

		updated, err := s.service.UpdateLedgerStatus(s.at(time.Hour), reg.ID, &models.UpdateLedgerStatusRequest{Status: models.LedgerStatusSuspended})
		s.Require().NoError(err)
		s.Equal(models.LedgerStatusSuspended, updated.LedgerStatus)
		s.Equal(reg.DID, updated.DID)
	})

	s.Run("status update on unknown registration", func() {
		_, err := s.service.UpdateLedgerStatus(s.at(0), id.NewRegistrationID(), &models.UpdateLedgerStatusRequest{Status: models.LedgerStatusRevoked})
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestLedgerWithoutAgent() {
	svc := service.New(s.clients, s.stewards, s.votes, s.registrations, nil,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c := s.approvedClient(models.ClientRoleIssuer)

	_, err := svc.RegisterOnLedger(s.at(0), c.ID, &models.RegistrationRequest{DID: "did:sov:z", Verkey: "vk-z", AdminURL: "http://agent:8021"})
	s.requireCode(err, dErrors.CodeLedger)
}

func (s *ServiceSuite) TestEventsEmitted() {
	c := s.approvedClient(models.ClientRoleIssuer)

	var types []events.Type
	for _, e := range s.sink.ListByClient(c.ID) {
		types = append(types, e.Type)
	}
	s.Equal(events.ClientRegistered, types[0])
	s.Contains(types, events.VoteCast)
	s.Equal(events.ClientApproved, types[len(types)-1])
}

func TestPublisherFailureDoesNotFailRegistration(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockEventPublisher(ctrl)
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	clients := clientstore.NewInMemory()
	stewards := stewardstore.NewInMemory()
	votes := votestore.NewInMemory()
	svc := service.New(clients, stewards, votes, registrationstore.NewInMemory(),
		quorum.NewEngine(clients, votes, stewards),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithPublisher(publisher),
	)

	c, err := svc.RegisterClient(context.Background(), &models.RegisterClientRequest{
		CompanyName: "Acme", TaxID: "11222333000181", Email: "ops@acme.com", Role: models.ClientRoleBoth,
	})
	if err != nil {
		t.Fatalf("register client: %v", err)
	}
	if c.Status != models.ClientStatusVoting {
		t.Fatalf("status = %s", c.Status)
	}
}

// stampFailingClients is a client store whose first-vote stamp always fails.
type stampFailingClients struct {
	*clientstore.InMemory
}

func (stampFailingClients) SetFirstVoteAt(context.Context, id.ClientID, time.Time) (bool, error) {
	return false, errors.New("store unavailable")
}

func TestCastVote_StampFailureLeavesNoBallot(t *testing.T) {
	ctx := context.Background()
	clients := stampFailingClients{InMemory: clientstore.NewInMemory()}
	stewards := stewardstore.NewInMemory()
	votes := votestore.NewInMemory()
	svc := service.New(clients, stewards, votes, registrationstore.NewInMemory(),
		quorum.NewEngine(clients, votes, stewards),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	_, err := svc.SeedStewards(ctx, service.DefaultRoster)
	require.NoError(t, err)
	roster, err := svc.ListStewards(ctx, true)
	require.NoError(t, err)

	c, err := svc.RegisterClient(ctx, &models.RegisterClientRequest{
		CompanyName: "Acme", TaxID: "11222333000181", Email: "ops@acme.com", Role: models.ClientRoleIssuer,
	})
	require.NoError(t, err)

	ballot := &models.CastVoteRequest{StewardID: roster[0].ID, ClientID: c.ID, Vote: models.VoteApprove}
	_, err = svc.CastVote(ctx, ballot)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))

	stored, err := votes.ListByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, stored, "a failed stamp must not leave a ballot behind")

	_, err = svc.CastVote(ctx, ballot)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err), "retry is not blocked by a stray ballot")
}
