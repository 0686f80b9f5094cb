package httptransport

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"commitgood/internal/rates"
	"commitgood/internal/state"
	"commitgood/pkg/platform/httputil"
)

func (h *Handler) handleAuthorizeUser(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, "registry.authorizeUser", h.ledger.Registry.AuthorizeUser)
}

func (h *Handler) handleAuthorizeCharity(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, "registry.authorizeCharity", h.ledger.Registry.AuthorizeCharity)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, common.Address, bool) (*state.Receipt, error)) {
	req, ok := decode[AuthorizeRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := call(r.Context(), req.addr, *req.Enabled)
	h.writeReceipt(w, r, op, receipt, err)
}

func (h *Handler) handleCheckUser(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, "registry.checkUser", h.ledger.Registry.CheckUser)
}

func (h *Handler) handleCheckCharity(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, "registry.checkCharity", h.ledger.Registry.CheckCharity)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request, op string,
	query func(context.Context, common.Address) (bool, error)) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	authorized, err := query(r.Context(), addr)
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CheckResponse{Address: addr, Authorized: authorized})
}

func (h *Handler) handleSetRate(w http.ResponseWriter, r *http.Request) {
	category, err := rates.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := decode[SetRateRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Rates.Set(r.Context(), category, req.value)
	h.writeReceipt(w, r, "rates.set", receipt, err)
}

func (h *Handler) handleGetRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.ledger.Rates.Rates(r.Context())
	if err != nil {
		h.writeFailure(w, r, "rates.rates", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRatesResponse(table))
}

func (h *Handler) handleSetCatalogRegistry(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CatalogPointerRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Catalog.SetRegistry(r.Context(), req.kontract)
	h.writeReceipt(w, r, "catalog.setRegistry", receipt, err)
}

func (h *Handler) handleSetCatalogRates(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CatalogPointerRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Catalog.SetRateOfGood(r.Context(), req.kontract)
	h.writeReceipt(w, r, "catalog.setRateOfGood", receipt, err)
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.Catalog.Entries(r.Context())
	if err != nil {
		h.writeFailure(w, r, "catalog.entries", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
