package handler

import (
	"net/http"

	"govnet/pkg/platform/httputil"
	"govnet/pkg/requestcontext"
)

// HandleSchedulerStatus handles GET /scheduler/status.
func (h *Handler) HandleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.scheduler.Status())
}

// HandleCheckNow handles POST /scheduler/check-now.
func (h *Handler) HandleCheckNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := h.scheduler.CheckNow(ctx)
	h.logger.InfoContext(ctx, "manual voting sweep",
		"request_id", requestcontext.RequestID(ctx),
		"checked", res.Checked,
		"finalized", res.Finalized,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
