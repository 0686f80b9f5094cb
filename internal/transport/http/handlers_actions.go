package httptransport

import (
	"net/http"

	"commitgood/pkg/platform/httputil"
)

func (h *Handler) handleDeliveryRequested(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[DeliveryRequestedRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Delivery.DeliveryRequested(r.Context(), req.recipient, req.recipientID, req.ItemDescription)
	h.writeReceipt(w, r, "delivery.deliveryRequested", receipt, err)
}

func (h *Handler) handleDeliveryVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[DeliveryVerifyRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Delivery.DeliveryVerify(r.Context(), req.verification)
	h.writeReceipt(w, r, "delivery.deliveryVerify", receipt, err)
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[DonationRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Donation.Donate(r.Context(), req.donation)
	h.writeReceipt(w, r, "donation.donate", receipt, err)
}

func (h *Handler) handleTotalDonated(w http.ResponseWriter, r *http.Request) {
	charity, ok := h.pathAddress(w, r, "charity")
	if !ok {
		return
	}
	total, err := h.ledger.Donation.TotalDonated(r.Context(), charity)
	if err != nil {
		h.writeFailure(w, r, "donation.totalDonated", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Address: charity, Balance: total.Dec()})
}

func (h *Handler) handleCreateFundRaiserCampaign(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CampaignRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.FundRaising.CreateFundRaiserCampaign(r.Context(), req.charity, req.charityID, req.campaignID, req.goal)
	h.writeReceipt(w, r, "fundraising.createFundRaiserCampaign", receipt, err)
}

func (h *Handler) handleRaiseFunds(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[RaiseFundsRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.FundRaising.RaiseFunds(r.Context(), req.contribution)
	h.writeReceipt(w, r, "fundraising.raiseFunds", receipt, err)
}

func (h *Handler) handleGetFundRaiserCampaign(w http.ResponseWriter, r *http.Request) {
	charity, campaignID, ok := h.pathCampaign(w, r)
	if !ok {
		return
	}
	campaign, err := h.ledger.FundRaising.Campaign(r.Context(), charity, campaignID)
	if err != nil {
		h.writeFailure(w, r, "fundraising.campaign", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaign)
}

func (h *Handler) handleCreateInKindCampaign(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CampaignRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.InKind.CreateInKindDonationCampaign(r.Context(), req.charity, req.charityID, req.campaignID)
	h.writeReceipt(w, r, "inkind.createInKindDonationCampaign", receipt, err)
}

func (h *Handler) handleInKindPledge(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[PledgeRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.InKind.InKindDonation(r.Context(), req.pledge)
	h.writeReceipt(w, r, "inkind.inKindDonation", receipt, err)
}

func (h *Handler) handleInKindVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[PledgeRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.InKind.InKindDonationVerify(r.Context(), req.pledge, req.donation)
	h.writeReceipt(w, r, "inkind.inKindDonationVerify", receipt, err)
}

func (h *Handler) handleCreateVolunteerCampaign(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CampaignRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Volunteer.CreateVolunteerCampaign(r.Context(), req.charity, req.charityID, req.campaignID)
	h.writeReceipt(w, r, "volunteer.createVolunteerCampaign", receipt, err)
}

func (h *Handler) handleVolunteerSignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[ParticipationRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Volunteer.SignUp(r.Context(), req.participation)
	h.writeReceipt(w, r, "volunteer.signUp", receipt, err)
}

func (h *Handler) handleVolunteerVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[ParticipationRequest](h, w, r)
	if !ok {
		return
	}
	receipt, err := h.ledger.Volunteer.Verify(r.Context(), req.participation, req.hours)
	h.writeReceipt(w, r, "volunteer.verify", receipt, err)
}

func (h *Handler) handleGetSignup(w http.ResponseWriter, r *http.Request) {
	charity, campaignID, ok := h.pathCampaign(w, r)
	if !ok {
		return
	}
	user, ok := h.pathAddress(w, r, "user")
	if !ok {
		return
	}
	signup, err := h.ledger.Volunteer.Signup(r.Context(), charity, campaignID, user)
	if err != nil {
		h.writeFailure(w, r, "volunteer.signup", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signup)
}
