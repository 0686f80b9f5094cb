// Package inkind runs in-kind donation campaigns: users pledge goods, and
// the verifier rewards them per unit received.
package inkind

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/internal/actions/campaign"
	"commitgood/internal/actions/ports"
	"commitgood/internal/rates"
	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
)

type Service struct {
	address  common.Address
	owner    common.Address
	exec     *state.Executor
	registry ports.Registry
	rates    ports.Rates
	minter   ports.Minter
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(address, owner common.Address, exec *state.Executor, registry ports.Registry, rateTable ports.Rates, minter ports.Minter, opts ...Option) (*Service, error) {
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if domain.IsZeroAddress(address) || domain.IsZeroAddress(owner) {
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "in-kind and owner addresses are required")
	}
	if err := ports.RequireDependencies(registry, rateTable, minter); err != nil {
		return nil, err
	}
	svc := &Service{
		address:  address,
		owner:    owner,
		exec:     exec,
		registry: registry,
		rates:    rateTable,
		minter:   minter,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) Address() common.Address { return s.address }

func (s *Service) CreateInKindDonationCampaign(ctx context.Context, charity common.Address, charityID domain.CharityID, campaignID domain.CampaignID) (*state.Receipt, error) {
	const op = "inkind.create_campaign"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if err := ports.RequireIDs(uint64(charityID), uint64(campaignID)); err != nil {
			return err
		}
		if err := ports.RequireCharity(ctx, s.registry, charity); err != nil {
			return err
		}
		rec := campaign.Record{Charity: charity, CharityID: charityID, CampaignID: campaignID}
		if err := campaign.Create(ctx, txn, campaign.Key(s.address, charity, campaignID), rec); err != nil {
			return err
		}
		txn.Emit(s.address, EventInKindDonationCampaign{
			Charity:    charity,
			CharityID:  charityID,
			CampaignID: campaignID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "charity", charity.Hex(), "campaign_id", campaignID)
	return receipt, nil
}

// InKindDonation logs a pledge. Nothing is minted until it is verified.
func (s *Service) InKindDonation(ctx context.Context, p Pledge) (*state.Receipt, error) {
	const op = "inkind.pledge"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := s.validate(ctx, p); err != nil {
			return err
		}
		txn.Emit(s.address, EventInKindDonation{
			User:       p.User,
			UserID:     p.UserID,
			Charity:    p.Charity,
			CharityID:  p.CharityID,
			CampaignID: p.CampaignID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "user", p.User.Hex(), "campaign_id", p.CampaignID)
	return receipt, nil
}

// InKindDonationVerify rewards the user with donation × in-kind rate.
func (s *Service) InKindDonationVerify(ctx context.Context, p Pledge, donation *uint256.Int) (*state.Receipt, error) {
	const op = "inkind.verify"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if err := s.validate(ctx, p); err != nil {
			return err
		}
		if donation == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "donation quantity is required")
		}
		reward, err := s.rates.Reward(ctx, rates.CategoryInKind, donation)
		if err != nil {
			return err
		}
		txn.Emit(s.address, EventInKindDonationVerify{
			User:       p.User,
			UserID:     p.UserID,
			Charity:    p.Charity,
			CharityID:  p.CharityID,
			CampaignID: p.CampaignID,
			Donation:   donation.Clone(),
			Reward:     reward,
		})
		_, err = s.minter.Mint(ports.AsComponent(ctx, s.address), p.User, reward)
		return err
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "user", p.User.Hex(), "campaign_id", p.CampaignID)
	return receipt, nil
}

func (s *Service) validate(ctx context.Context, p Pledge) error {
	if err := ports.RequireIDs(uint64(p.UserID), uint64(p.CharityID), uint64(p.CampaignID)); err != nil {
		return err
	}
	if err := ports.RequireUser(ctx, s.registry, p.User); err != nil {
		return err
	}
	return ports.RequireCharity(ctx, s.registry, p.Charity)
}
