// Package campaign stores charity-scoped campaign records for the
// fund-raising, in-kind and volunteer components.
package campaign

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
)

// Record is a created campaign. Components keep their own accrued state
// under separate keys.
type Record struct {
	Charity    common.Address    `json:"charity"`
	CharityID  domain.CharityID  `json:"charityId"`
	CampaignID domain.CampaignID `json:"campaignId"`
}

// Key addresses a campaign within component's namespace.
func Key(component, charity common.Address, campaignID domain.CampaignID) string {
	return state.Key(component, "campaign", state.AddressPart(charity), campaignID.String())
}

// Load returns the record at key, or ok=false.
func Load(ctx context.Context, r state.Reader, key string) (*Record, bool, error) {
	var rec Record
	ok, err := state.GetJSON(ctx, r, key, &rec)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read campaign")
	}
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

// Require fails with CampaignNotFound when no record exists at key.
func Require(ctx context.Context, r state.Reader, key string) (*Record, error) {
	rec, ok, err := Load(ctx, r, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeCampaignNotFound, "campaign not found")
	}
	return rec, nil
}

// Create stores rec at key, failing with CampaignExists when taken.
func Create(ctx context.Context, txn *state.Txn, key string, rec Record) error {
	_, exists, err := Load(ctx, txn, key)
	if err != nil {
		return err
	}
	if exists {
		return dErrors.New(dErrors.CodeCampaignExists, "campaign already exists")
	}
	if err := state.PutJSON(txn, key, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store campaign")
	}
	return nil
}
