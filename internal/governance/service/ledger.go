package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"govnet/internal/agent"
	"govnet/internal/governance/events"
	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/sentinel"
	"govnet/pkg/requestcontext"
)

// Ledger registration results recorded in metrics.
const (
	ledgerResultRegistered = "registered"
	ledgerResultRejected   = "rejected"
	ledgerResultFailed     = "agent_error"
)

// RegisterOnLedger writes an approved client's DID to the ledger and records it.
//
// Checks run in order: client exists, client is approved, client has no
// registration, DID is not registered, verkey is not registered. All of them
// pass before the agent is called. The local record is written only after the
// agent accepted the nym; an agent failure leaves no state behind.
func (s *Service) RegisterOnLedger(ctx context.Context, clientID id.ClientID, req *models.RegistrationRequest) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Register", trace.WithAttributes(
		attribute.String("client_id", clientID.String()),
	))
	defer span.End()

	reg, err := s.registerOnLedger(ctx, clientID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		if dErrors.HasCode(err, dErrors.CodeLedger) {
			s.metrics.IncLedgerRegistration(ledgerResultFailed)
		} else {
			s.metrics.IncLedgerRegistration(ledgerResultRejected)
		}
		return nil, err
	}
	s.metrics.IncLedgerRegistration(ledgerResultRegistered)
	return reg, nil
}

func (s *Service) registerOnLedger(ctx context.Context, clientID id.ClientID, req *models.RegistrationRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, clientLookupError(err)
	}
	if !c.IsApproved() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "client is not approved")
	}
	if _, err := s.registrations.FindByClientID(ctx, clientID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "client already has a registered DID")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check client registration")
	}
	if _, err := s.registrations.FindByDID(ctx, req.DID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "DID already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check DID")
	}
	if _, err := s.registrations.FindByVerkey(ctx, req.Verkey); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "verkey already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verkey")
	}

	role := models.LedgerRoleFor(c.Role)
	nym := agent.NymRequest{DID: req.DID, Verkey: req.Verkey, Alias: c.CompanyName}
	if role != models.LedgerRoleNone {
		nym.Role = string(role)
	}
	if err := s.submitNym(ctx, clientID, nym); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	reg := &models.Registration{
		ID:           id.NewRegistrationID(),
		ClientID:     clientID,
		DID:          req.DID,
		Verkey:       req.Verkey,
		AdminURL:     req.AdminURL,
		Role:         role,
		Alias:        c.CompanyName,
		LedgerStatus: models.LedgerStatusRegistered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "client, DID or verkey already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}

	s.logger.InfoContext(ctx, "client registered on ledger",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID.String(),
		"did", reg.DID,
		"role", string(reg.Role),
	)
	s.emit(ctx, events.Event{
		Type:           events.LedgerRegistered,
		ClientID:       clientID,
		RegistrationID: reg.ID,
		Outcome:        string(reg.LedgerStatus),
	})
	return reg, nil
}

func (s *Service) submitNym(ctx context.Context, clientID id.ClientID, nym agent.NymRequest) error {
	if s.agent == nil {
		return dErrors.New(dErrors.CodeLedger, "ledger agent is not configured")
	}
	start := time.Now()
	err := s.agent.RegisterNym(ctx, nym)
	s.metrics.ObserveLedgerCall(start)
	if err == nil {
		return nil
	}
	s.logger.ErrorContext(ctx, "ledger registration failed",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID.String(),
		"did", nym.DID,
		"error", err,
	)
	s.emit(ctx, events.Event{Type: events.LedgerFailed, ClientID: clientID, Reason: err.Error()})
	return dErrors.Wrap(err, dErrors.CodeLedger, "ledger registration failed")
}

// ClientRegistration returns the ledger registration of a client.
func (s *Service) ClientRegistration(ctx context.Context, clientID id.ClientID) (*models.Registration, error) {
	reg, err := s.registrations.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, registrationLookupError(err)
	}
	return reg, nil
}

// UpdateLedgerStatus changes a registration's ledger status. The identity
// fields never change.
func (s *Service) UpdateLedgerStatus(ctx context.Context, registrationID id.RegistrationID, req *models.UpdateLedgerStatusRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.registrations.UpdateStatus(ctx, registrationID, req.Status, requestcontext.Now(ctx)); err != nil {
		return nil, registrationLookupError(err)
	}
	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return nil, registrationLookupError(err)
	}
	s.emit(ctx, events.Event{
		Type:           events.LedgerStatusSet,
		ClientID:       reg.ClientID,
		RegistrationID: reg.ID,
		Outcome:        string(reg.LedgerStatus),
	})
	return reg, nil
}

func registrationLookupError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
}
