package volunteer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/pkg/domain"
)

// SignupStatus is a volunteer's progress within one campaign.
type SignupStatus string

const (
	StatusNotSignedUp SignupStatus = "not_signed_up"
	StatusSignedUp    SignupStatus = "signed_up"
	StatusVerified    SignupStatus = "verified"
)

// Participation identifies a volunteer within a charity campaign.
type Participation struct {
	User       common.Address
	UserID     domain.ActorID
	Charity    common.Address
	CharityID  domain.CharityID
	CampaignID domain.CampaignID
}

// Signup is the stored state of a participation.
type Signup struct {
	Charity    common.Address    `json:"charity"`
	CampaignID domain.CampaignID `json:"campaignId"`
	User       common.Address    `json:"user"`
	UserID     domain.ActorID    `json:"userId"`
	Status     SignupStatus      `json:"status"`
	Hours      *uint256.Int      `json:"hours,omitempty"`
}

// signupRecord is the persisted form of a Signup.
type signupRecord struct {
	UserID domain.ActorID `json:"userId"`
	Status SignupStatus   `json:"status"`
	Hours  string         `json:"hours,omitempty"`
}

type CreateVolunteerCampaign struct {
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
}

func (CreateVolunteerCampaign) EventName() string { return "CreateVolunteerCampaign" }
func (CreateVolunteerCampaign) Signature() string {
	return "CreateVolunteerCampaign(address,uint256,uint256)"
}

type VolunteerSignUp struct {
	User       common.Address    `json:"user"`
	UserID     domain.ActorID    `json:"userId"`
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
}

func (VolunteerSignUp) EventName() string { return "VolunteerSignUp" }
func (VolunteerSignUp) Signature() string {
	return "VolunteerSignUp(address,uint256,address,uint256,uint256)"
}

type VolunteerVerify struct {
	User       common.Address    `json:"user"`
	UserID     domain.ActorID    `json:"userId"`
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
	Time       *uint256.Int      `json:"time"`
	Reward     *uint256.Int      `json:"reward"`
}

func (VolunteerVerify) EventName() string { return "VolunteerVerify" }
func (VolunteerVerify) Signature() string {
	return "VolunteerVerify(address,uint256,address,uint256,uint256,uint256,uint256)"
}
