package inkind

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/pkg/domain"
)

// Pledge identifies a user's in-kind donation to a charity campaign.
type Pledge struct {
	User       common.Address
	UserID     domain.ActorID
	Charity    common.Address
	CharityID  domain.CharityID
	CampaignID domain.CampaignID
}

type EventInKindDonationCampaign struct {
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
}

func (EventInKindDonationCampaign) EventName() string { return "EventInKindDonationCampaign" }
func (EventInKindDonationCampaign) Signature() string {
	return "EventInKindDonationCampaign(address,uint256,uint256)"
}

type EventInKindDonation struct {
	User       common.Address    `json:"user"`
	UserID     domain.ActorID    `json:"userId"`
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
}

func (EventInKindDonation) EventName() string { return "EventInKindDonation" }
func (EventInKindDonation) Signature() string {
	return "EventInKindDonation(address,uint256,address,uint256,uint256)"
}

type EventInKindDonationVerify struct {
	User       common.Address    `json:"user"`
	UserID     domain.ActorID    `json:"userId"`
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
	Donation   *uint256.Int      `json:"donation"`
	Reward     *uint256.Int      `json:"reward"`
}

func (EventInKindDonationVerify) EventName() string { return "EventInKindDonationVerify" }
func (EventInKindDonationVerify) Signature() string {
	return "EventInKindDonationVerify(address,uint256,address,uint256,uint256,uint256,uint256)"
}
