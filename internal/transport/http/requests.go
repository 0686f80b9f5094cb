package httptransport

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/internal/actions/delivery"
	"commitgood/internal/actions/donation"
	"commitgood/internal/actions/fundraising"
	"commitgood/internal/actions/inkind"
	"commitgood/internal/actions/volunteer"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
)

// fields parses request fields and keeps the first failure.
type fields struct {
	err error
}

func (f *fields) fail(name string, err error) {
	if f.err != nil {
		return
	}
	msg := err.Error()
	if de, ok := dErrors.As(err); ok {
		msg = de.Message
	}
	f.err = dErrors.New(dErrors.CodeValidation, name+": "+msg)
}

func (f *fields) address(name, s string) common.Address {
	a, err := domain.ParseAddress(s)
	if err != nil {
		f.fail(name, err)
	}
	return a
}

func (f *fields) amount(name, s string) *uint256.Int {
	v, err := domain.ParseAmount(s)
	if err != nil {
		f.fail(name, err)
		return new(uint256.Int)
	}
	return v
}

// optionalAmount treats an empty field as zero.
func (f *fields) optionalAmount(name, s string) *uint256.Int {
	if strings.TrimSpace(s) == "" {
		return new(uint256.Int)
	}
	return f.amount(name, s)
}

func (f *fields) rate(name, s string) *big.Int {
	v, err := domain.ParseRate(s)
	if err != nil {
		f.fail(name, err)
	}
	return v
}

func (f *fields) actorID(name, s string) domain.ActorID {
	v, err := domain.ParseActorID(s)
	if err != nil {
		f.fail(name, err)
	}
	return v
}

func (f *fields) charityID(name, s string) domain.CharityID {
	v, err := domain.ParseCharityID(s)
	if err != nil {
		f.fail(name, err)
	}
	return v
}

func (f *fields) campaignID(name, s string) domain.CampaignID {
	v, err := domain.ParseCampaignID(s)
	if err != nil {
		f.fail(name, err)
	}
	return v
}

func requireBool(name string, b *bool) error {
	if b == nil {
		return dErrors.New(dErrors.CodeValidation, name+": is required")
	}
	return nil
}

// AuthorizeRequest enables or disables a registry role, or a mint agent.
type AuthorizeRequest struct {
	Address string `json:"address"`
	Enabled *bool  `json:"enabled"`

	addr common.Address
}

func (r *AuthorizeRequest) Validate() error {
	var f fields
	r.addr = f.address("address", r.Address)
	if f.err != nil {
		return f.err
	}
	return requireBool("enabled", r.Enabled)
}

type SetRateRequest struct {
	Value string `json:"value"`

	value *big.Int
}

func (r *SetRateRequest) Validate() error {
	var f fields
	r.value = f.rate("value", r.Value)
	return f.err
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`

	to     common.Address
	amount *uint256.Int
}

func (r *TransferRequest) Validate() error {
	var f fields
	r.to = f.address("to", r.To)
	r.amount = f.amount("amount", r.Amount)
	return f.err
}

type TransferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`

	from   common.Address
	to     common.Address
	amount *uint256.Int
}

func (r *TransferFromRequest) Validate() error {
	var f fields
	r.from = f.address("from", r.From)
	r.to = f.address("to", r.To)
	r.amount = f.amount("amount", r.Amount)
	return f.err
}

// ApprovalRequest serves approve, increase and decrease.
type ApprovalRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`

	spender common.Address
	amount  *uint256.Int
}

func (r *ApprovalRequest) Validate() error {
	var f fields
	r.spender = f.address("spender", r.Spender)
	r.amount = f.amount("amount", r.Amount)
	return f.err
}

type MintRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`

	to     common.Address
	amount *uint256.Int
}

func (r *MintRequest) Validate() error {
	var f fields
	r.to = f.address("to", r.To)
	r.amount = f.amount("amount", r.Amount)
	return f.err
}

type DeliveryRequestedRequest struct {
	Recipient       string `json:"recipient"`
	RecipientID     string `json:"recipientId"`
	ItemDescription string `json:"itemDescription"`

	recipient   common.Address
	recipientID domain.ActorID
}

func (r *DeliveryRequestedRequest) Validate() error {
	var f fields
	r.recipient = f.address("recipient", r.Recipient)
	r.recipientID = f.actorID("recipientId", r.RecipientID)
	return f.err
}

type DeliveryVerifyRequest struct {
	Courier         string `json:"courier"`
	CourierID       string `json:"courierId"`
	Recipient       string `json:"recipient"`
	RecipientID     string `json:"recipientId"`
	ItemDescription string `json:"itemDescription"`
	TotalWeight     string `json:"totalWeight"`

	verification delivery.Verification
}

func (r *DeliveryVerifyRequest) Validate() error {
	var f fields
	r.verification = delivery.Verification{
		Courier:         f.address("courier", r.Courier),
		CourierID:       f.actorID("courierId", r.CourierID),
		Recipient:       f.address("recipient", r.Recipient),
		RecipientID:     f.actorID("recipientId", r.RecipientID),
		ItemDescription: r.ItemDescription,
		TotalWeight:     f.amount("totalWeight", r.TotalWeight),
	}
	return f.err
}

type DonationRequest struct {
	User      string `json:"user"`
	UserID    string `json:"userId"`
	Charity   string `json:"charity"`
	CharityID string `json:"charityId"`
	Amount    string `json:"amount"`
	Reward    string `json:"reward"`

	donation donation.Donation
}

func (r *DonationRequest) Validate() error {
	var f fields
	r.donation = donation.Donation{
		User:      f.address("user", r.User),
		UserID:    f.actorID("userId", r.UserID),
		Charity:   f.address("charity", r.Charity),
		CharityID: f.charityID("charityId", r.CharityID),
		Amount:    f.amount("amount", r.Amount),
		Reward:    f.optionalAmount("reward", r.Reward),
	}
	return f.err
}

// CampaignRequest creates a campaign. Goal is read by fund-raising only.
type CampaignRequest struct {
	Charity    string `json:"charity"`
	CharityID  string `json:"charityId"`
	CampaignID string `json:"campaignId"`
	Goal       string `json:"goal,omitempty"`

	charity    common.Address
	charityID  domain.CharityID
	campaignID domain.CampaignID
	goal       *uint256.Int
}

func (r *CampaignRequest) Validate() error {
	var f fields
	r.charity = f.address("charity", r.Charity)
	r.charityID = f.charityID("charityId", r.CharityID)
	r.campaignID = f.campaignID("campaignId", r.CampaignID)
	r.goal = f.optionalAmount("goal", r.Goal)
	return f.err
}

type RaiseFundsRequest struct {
	Donator     string `json:"donator"`
	DonatorID   string `json:"donatorId"`
	Charity     string `json:"charity"`
	CharityID   string `json:"charityId"`
	CampaignID  string `json:"campaignId"`
	Amount      string `json:"amount"`
	GoalReached bool   `json:"goalReached"`

	contribution fundraising.Contribution
}

func (r *RaiseFundsRequest) Validate() error {
	var f fields
	r.contribution = fundraising.Contribution{
		Donator:     f.address("donator", r.Donator),
		DonatorID:   f.actorID("donatorId", r.DonatorID),
		Charity:     f.address("charity", r.Charity),
		CharityID:   f.charityID("charityId", r.CharityID),
		CampaignID:  f.campaignID("campaignId", r.CampaignID),
		Amount:      f.amount("amount", r.Amount),
		GoalReached: r.GoalReached,
	}
	return f.err
}

// PledgeRequest serves in-kind pledges and verifications. Donation is read by
// verifications only.
type PledgeRequest struct {
	User       string `json:"user"`
	UserID     string `json:"userId"`
	Charity    string `json:"charity"`
	CharityID  string `json:"charityId"`
	CampaignID string `json:"campaignId"`
	Donation   string `json:"donation,omitempty"`

	pledge   inkind.Pledge
	donation *uint256.Int
}

func (r *PledgeRequest) Validate() error {
	var f fields
	r.pledge = inkind.Pledge{
		User:       f.address("user", r.User),
		UserID:     f.actorID("userId", r.UserID),
		Charity:    f.address("charity", r.Charity),
		CharityID:  f.charityID("charityId", r.CharityID),
		CampaignID: f.campaignID("campaignId", r.CampaignID),
	}
	r.donation = f.optionalAmount("donation", r.Donation)
	return f.err
}

// ParticipationRequest serves volunteer signups and verifications. Hours is
// read by verifications only.
type ParticipationRequest struct {
	User       string `json:"user"`
	UserID     string `json:"userId"`
	Charity    string `json:"charity"`
	CharityID  string `json:"charityId"`
	CampaignID string `json:"campaignId"`
	Hours      string `json:"hours,omitempty"`

	participation volunteer.Participation
	hours         *uint256.Int
}

func (r *ParticipationRequest) Validate() error {
	var f fields
	r.participation = volunteer.Participation{
		User:       f.address("user", r.User),
		UserID:     f.actorID("userId", r.UserID),
		Charity:    f.address("charity", r.Charity),
		CharityID:  f.charityID("charityId", r.CharityID),
		CampaignID: f.campaignID("campaignId", r.CampaignID),
	}
	r.hours = f.optionalAmount("hours", r.Hours)
	return f.err
}

type CatalogPointerRequest struct {
	Kontract string `json:"kontract"`

	kontract common.Address
}

func (r *CatalogPointerRequest) Validate() error {
	var f fields
	r.kontract = f.address("kontract", r.Kontract)
	return f.err
}
