package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// HandleRegisterOnLedger handles POST /ledger/register for the client owning
// the request's API key.
func (h *Handler) HandleRegisterOnLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	clientID := requestcontext.ClientID(ctx)
	if clientID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "api key required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.RegistrationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.RegisterOnLedger(ctx, clientID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "ledger registration failed",
			"request_id", requestID,
			"client_id", clientID.String(),
			"did", req.DID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ledger registration completed",
		"request_id", requestID,
		"client_id", clientID.String(),
		"did", reg.DID,
		"role", string(reg.Role),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, reg)
}

// HandleGetRegistration handles GET /ledger/registration.
func (h *Handler) HandleGetRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := requestcontext.ClientID(ctx)
	if clientID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "api key required"))
		return
	}
	reg, err := h.service.ClientRegistration(ctx, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

// HandleUpdateLedgerStatus handles PATCH /ledger/registrations/{registrationID}/status.
func (h *Handler) HandleUpdateLedgerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	registrationID, err := id.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateLedgerStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	reg, err := h.service.UpdateLedgerStatus(ctx, registrationID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}
