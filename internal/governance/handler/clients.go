package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// HandleRegisterClient handles POST /clients.
func (h *Handler) HandleRegisterClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.RegisterClient(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "client registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toClientResponse(c))
}

// HandleListClients handles GET /clients?status=&role=&search=.
func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := models.ClientFilter{
		Status: models.ClientStatus(q.Get("status")),
		Role:   models.ClientRole(q.Get("role")),
		Search: q.Get("search"),
	}

	list, err := h.service.ListClients(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(toClientResponses(list)))
}

// HandleClientStatistics handles GET /clients/statistics/overview.
func (h *Handler) HandleClientStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ClientStatistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleGetClientByTaxID handles GET /clients/tax-id/{taxID}.
func (h *Handler) HandleGetClientByTaxID(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetClientByTaxID(r.Context(), chi.URLParam(r, "taxID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClientResponse(c))
}

// HandleGetClient handles GET /clients/{clientID}.
func (h *Handler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClientResponse(c))
}

// HandleVotingDetails handles GET /clients/{clientID}/votes.
func (h *Handler) HandleVotingDetails(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	details, err := h.service.VotingDetails(r.Context(), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

// HandleGetAPIKey handles GET /clients/{clientID}/api-key.
func (h *Handler) HandleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.GetClient(ctx, clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !c.IsApproved() || c.APIKey == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidState, "client has no api key"))
		return
	}
	h.logger.InfoContext(ctx, "api key disclosed to operator",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, APIKeyResponse{ClientID: c.ID, APIKey: c.APIKey})
}
