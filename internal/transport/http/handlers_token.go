package httptransport

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/internal/state"
	"commitgood/pkg/platform/httputil"
)

func (h *Handler) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.ledger.Token.Info(r.Context())
	if err != nil {
		h.writeFailure(w, r, "token.info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleBalanceOf(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	balance, err := h.ledger.Token.BalanceOf(r.Context(), addr)
	if err != nil {
		h.writeFailure(w, r, "token.balanceOf", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Address: addr, Balance: balance.Dec()})
}

func (h *Handler) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := h.pathAddress(w, r, "spender")
	if !ok {
		return
	}
	allowance, err := h.ledger.Token.Allowance(r.Context(), owner, spender)
	if err != nil {
		h.writeFailure(w, r, "token.allowance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowanceResponse{Owner: owner, Spender: spender, Allowance: allowance.Dec()})
}

func (h *Handler) handleGetMintAgent(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	enabled, err := h.ledger.Token.MintAgent(r.Context(), addr)
	if err != nil {
		h.writeFailure(w, r, "token.mintAgent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MintAgentResponse{Address: addr, Enabled: enabled})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TransferRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Token.Transfer(r.Context(), req.to, req.amount)
	h.writeReceipt(w, r, "token.transfer", receipt, err)
}

func (h *Handler) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TransferFromRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Token.TransferFrom(r.Context(), req.from, req.to, req.amount)
	h.writeReceipt(w, r, "token.transferFrom", receipt, err)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, "token.approve", h.ledger.Token.Approve)
}

func (h *Handler) handleIncreaseApproval(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, "token.increaseApproval", h.ledger.Token.IncreaseApproval)
}

func (h *Handler) handleDecreaseApproval(w http.ResponseWriter, r *http.Request) {
	h.approval(w, r, "token.decreaseApproval", h.ledger.Token.DecreaseApproval)
}

func (h *Handler) approval(w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, common.Address, *uint256.Int) (*state.Receipt, error)) {
	req, ok := decode[ApprovalRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := call(r.Context(), req.spender, req.amount)
	h.writeReceipt(w, r, op, receipt, err)
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[MintRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Token.Mint(r.Context(), req.to, req.amount)
	h.writeReceipt(w, r, "token.mint", receipt, err)
}

func (h *Handler) handleFinishMinting(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.ledger.Token.FinishMinting(r.Context())
	h.writeReceipt(w, r, "token.finishMinting", receipt, err)
}

func (h *Handler) handleSetMintAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[AuthorizeRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Token.SetMintAgent(r.Context(), req.addr, *req.Enabled)
	h.writeReceipt(w, r, "token.setMintAgent", receipt, err)
}
