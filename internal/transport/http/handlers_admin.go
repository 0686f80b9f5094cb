package httptransport

import (
	"net/http"
	"strconv"

	dErrors "commitgood/pkg/domain-errors"
	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/httputil"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

func (h *Handler) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxEventsLimit)
	}
	events := []audit.Log{}
	if h.events != nil {
		logs, err := h.events.ListRecent(r.Context(), limit)
		if err != nil {
			h.writeFailure(w, r, "admin.events", dErrors.Wrap(err, dErrors.CodeInternal, "list events"))
			return
		}
		events = append(events, logs...)
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Events: events})
}

func (h *Handler) handleDeployment(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, DeploymentResponse{
		Owner:     h.ledger.Owner,
		Addresses: h.ledger.Addresses,
	})
}
