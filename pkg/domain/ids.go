package domain

import (
	"strconv"
	"strings"

	dErrors "commitgood/pkg/domain-errors"
)

// Off-ledger identifiers. Zero is representable so that components can
// reject it with a ledger error rather than a parse error.
type (
	ActorID    uint64 // a registered user: recipient, courier, donator or volunteer
	CharityID  uint64
	CampaignID uint64
)

func (id ActorID) IsZero() bool    { return id == 0 }
func (id CharityID) IsZero() bool  { return id == 0 }
func (id CampaignID) IsZero() bool { return id == 0 }

func (id ActorID) String() string    { return strconv.FormatUint(uint64(id), 10) }
func (id CharityID) String() string  { return strconv.FormatUint(uint64(id), 10) }
func (id CampaignID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseActorID parses a decimal actor identifier.
func ParseActorID(s string) (ActorID, error) {
	v, err := parseID(s, "actor id")
	return ActorID(v), err
}

// ParseCharityID parses a decimal charity identifier.
func ParseCharityID(s string) (CharityID, error) {
	v, err := parseID(s, "charity id")
	return CharityID(v), err
}

// ParseCampaignID parses a decimal campaign identifier.
func ParseCampaignID(s string) (CampaignID, error) {
	v, err := parseID(s, "campaign id")
	return CampaignID(v), err
}

func parseID(s, field string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return v, nil
}
