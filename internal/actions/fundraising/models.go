package fundraising

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/pkg/domain"
)

// Campaign is a fund-raising campaign with its goal and the amount raised
// through verified donations so far.
type Campaign struct {
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
	Goal       *uint256.Int      `json:"goal"`
	Raised     *uint256.Int      `json:"raised"`
}

// Contribution is a verified donation to a campaign. GoalReached is
// reported by the verifier, not derived from Raised.
type Contribution struct {
	Donator     common.Address
	DonatorID   domain.ActorID
	Charity     common.Address
	CharityID   domain.CharityID
	CampaignID  domain.CampaignID
	Amount      *uint256.Int
	GoalReached bool
}

type EventCreateFundRaiserCampaign struct {
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
	Goal       *uint256.Int      `json:"goal"`
}

func (EventCreateFundRaiserCampaign) EventName() string { return "EventCreateFundRaiserCampaign" }
func (EventCreateFundRaiserCampaign) Signature() string {
	return "EventCreateFundRaiserCampaign(address,uint256,uint256,uint256)"
}

type EventFundsDonated struct {
	Donator     common.Address    `json:"donator"`
	DonatorID   domain.ActorID    `json:"donatorId"`
	Charity     common.Address    `json:"charity"`
	CharityID   domain.CharityID  `json:"charityId"`
	CampaignID  domain.CampaignID `json:"campaignId"`
	Amount      *uint256.Int      `json:"amount"`
	GoalReached bool              `json:"goalReached"`
	Reward      *uint256.Int      `json:"reward"`
}

func (EventFundsDonated) EventName() string { return "EventFundsDonated" }
func (EventFundsDonated) Signature() string {
	return "EventFundsDonated(address,uint256,address,uint256,uint256,uint256,bool,uint256)"
}
