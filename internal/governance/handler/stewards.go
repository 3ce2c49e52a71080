package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"govnet/internal/governance/models"
	id "govnet/pkg/domain"
	dErrors "govnet/pkg/domain-errors"
	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// HandleCreateSteward handles POST /stewards.
func (h *Handler) HandleCreateSteward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateStewardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	st, err := h.service.CreateSteward(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "steward created",
		"request_id", requestID,
		"steward_id", st.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, st)
}

// HandleListStewards handles GET /stewards?active_only=true.
func (h *Handler) HandleListStewards(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "active_only must be a boolean"))
			return
		}
		activeOnly = parsed
	}

	list, err := h.service.ListStewards(r.Context(), activeOnly)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(list))
}

// HandleStewardStatistics handles GET /stewards/statistics.
func (h *Handler) HandleStewardStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.StewardStatistics(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleGetSteward handles GET /stewards/{stewardID}.
func (h *Handler) HandleGetSteward(w http.ResponseWriter, r *http.Request) {
	stewardID, err := id.ParseStewardID(chi.URLParam(r, "stewardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.service.GetSteward(r.Context(), stewardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

// HandleStewardVotes handles GET /stewards/{stewardID}/votes.
func (h *Handler) HandleStewardVotes(w http.ResponseWriter, r *http.Request) {
	stewardID, err := id.ParseStewardID(chi.URLParam(r, "stewardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	votes, err := h.service.StewardVotes(r.Context(), stewardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(votes))
}

// HandleDeactivateSteward handles POST /stewards/{stewardID}/deactivate.
func (h *Handler) HandleDeactivateSteward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stewardID, err := id.ParseStewardID(chi.URLParam(r, "stewardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.service.DeactivateSteward(ctx, stewardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "steward deactivated",
		"request_id", requestcontext.RequestID(ctx),
		"steward_id", stewardID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, st)
}

// HandleDeleteSteward handles DELETE /stewards/{stewardID}.
func (h *Handler) HandleDeleteSteward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stewardID, err := id.ParseStewardID(chi.URLParam(r, "stewardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSteward(ctx, stewardID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "steward deleted",
		"request_id", requestcontext.RequestID(ctx),
		"steward_id", stewardID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCastVote handles POST /stewards/votes.
func (h *Handler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CastVoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.CastVote(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "vote rejected",
			"request_id", requestID,
			"steward_id", req.StewardID.String(),
			"client_id", req.ClientID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
