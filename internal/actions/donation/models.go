package donation

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
)

// Mode selects how a donation is settled on the ledger.
type Mode string

const (
	// ModeMint mints the caller-supplied reward to the donor.
	ModeMint Mode = "mint"
	// ModeTransfer moves the donated amount from donor to charity through
	// the donor's allowance to this component. No reward is minted.
	ModeTransfer Mode = "transfer"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeMint:
		return ModeMint, nil
	case ModeTransfer:
		return ModeTransfer, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown donation mode: "+s)
	}
}

// Donation is a verified cash donation.
type Donation struct {
	User      common.Address
	UserID    domain.ActorID
	Charity   common.Address
	CharityID domain.CharityID
	Amount    *uint256.Int
	Reward    *uint256.Int
}

type UserDonation struct {
	User      common.Address   `json:"user"`
	UserID    domain.ActorID   `json:"userId"`
	Charity   common.Address   `json:"charity"`
	CharityID domain.CharityID `json:"charityId"`
	Donation  *uint256.Int     `json:"donation"`
	Reward    *uint256.Int     `json:"reward"`
}

func (UserDonation) EventName() string { return "UserDonation" }
func (UserDonation) Signature() string {
	return "UserDonation(address,uint256,address,uint256,uint256,uint256)"
}
