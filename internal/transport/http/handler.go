// Package httptransport exposes the ledger components over JSON/HTTP.
// Handlers decode and validate input, set nothing but the caller, and leave
// every ledger rule to the components.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"commitgood/internal/ledger"
	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/httputil"
	request "commitgood/pkg/platform/middleware/request"
)

// EventLister serves the recent committed logs.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Log, error)
}

// Handler serves every ledger route.
type Handler struct {
	logger *slog.Logger
	ledger *ledger.Ledger
	events EventLister
}

// New creates a Handler. events may be nil, in which case /admin/events is empty.
func New(l *ledger.Ledger, events EventLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, ledger: l, events: events}
}

// writeReceipt renders the outcome of a mutation.
func (h *Handler) writeReceipt(w http.ResponseWriter, r *http.Request, op string, receipt *state.Receipt, err error) {
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "ledger call failed",
			"op", op,
			"request_id", request.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "ledger call rejected",
			"op", op,
			"request_id", request.GetRequestID(ctx),
			"code", string(dErrors.CodeOf(err)),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) pathAddress(w http.ResponseWriter, r *http.Request, param string) (common.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, param+": "+err.Error()))
		return common.Address{}, false
	}
	return addr, true
}

func (h *Handler) pathCampaign(w http.ResponseWriter, r *http.Request) (common.Address, domain.CampaignID, bool) {
	charity, ok := h.pathAddress(w, r, "charity")
	if !ok {
		return common.Address{}, 0, false
	}
	id, err := domain.ParseCampaignID(chi.URLParam(r, "campaignId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "campaignId: "+err.Error()))
		return common.Address{}, 0, false
	}
	return charity, id, true
}

func decode[T any](h *Handler, w http.ResponseWriter, r *http.Request) (*T, bool) {
	ctx := r.Context()
	return httputil.DecodeAndPrepare[T](w, r, h.logger, ctx, request.GetRequestID(ctx))
}
