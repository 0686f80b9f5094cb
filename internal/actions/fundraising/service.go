// Package fundraising runs charity fund-raising campaigns and rewards
// donators for verified contributions.
package fundraising

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
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "fund-raising and owner addresses are required")
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

// CreateFundRaiserCampaign opens a campaign for a registered charity.
func (s *Service) CreateFundRaiserCampaign(ctx context.Context, charity common.Address, charityID domain.CharityID, campaignID domain.CampaignID, goal *uint256.Int) (*state.Receipt, error) {
	const op = "fundraising.create_campaign"
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
		if goal == nil {
			goal = new(uint256.Int)
		}
		key := campaign.Key(s.address, charity, campaignID)
		rec := campaign.Record{Charity: charity, CharityID: charityID, CampaignID: campaignID}
		if err := campaign.Create(ctx, txn, key, rec); err != nil {
			return err
		}
		state.PutUint256(txn, s.goalKey(charity, campaignID), goal)

		txn.Emit(s.address, EventCreateFundRaiserCampaign{
			Charity:    charity,
			CharityID:  charityID,
			CampaignID: campaignID,
			Goal:       goal.Clone(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "charity", charity.Hex(), "campaign_id", campaignID)
	return receipt, nil
}

// RaiseFunds rewards a donator with amount × fund-raising rate. When the
// campaign exists its raised total grows by amount.
func (s *Service) RaiseFunds(ctx context.Context, c Contribution) (*state.Receipt, error) {
	const op = "fundraising.raise_funds"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if err := ports.RequireIDs(uint64(c.DonatorID), uint64(c.CharityID), uint64(c.CampaignID)); err != nil {
			return err
		}
		if err := ports.RequireUser(ctx, s.registry, c.Donator); err != nil {
			return err
		}
		if err := ports.RequireCharity(ctx, s.registry, c.Charity); err != nil {
			return err
		}
		if c.Amount == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
		}
		_, exists, err := campaign.Load(ctx, txn, campaign.Key(s.address, c.Charity, c.CampaignID))
		if err != nil {
			return err
		}
		reward, err := s.rates.Reward(ctx, rates.CategoryFundRaising, c.Amount)
		if err != nil {
			return err
		}

		if exists {
			key := s.raisedKey(c.Charity, c.CampaignID)
			raised, err := state.GetUint256(ctx, txn, key)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read raised total")
			}
			next, overflow := new(uint256.Int).AddOverflow(raised, c.Amount)
			if overflow {
				return dErrors.New(dErrors.CodeInvalidAmount, "raised total overflows token range")
			}
			state.PutUint256(txn, key, next)
		}

		txn.Emit(s.address, EventFundsDonated{
			Donator:     c.Donator,
			DonatorID:   c.DonatorID,
			Charity:     c.Charity,
			CharityID:   c.CharityID,
			CampaignID:  c.CampaignID,
			Amount:      c.Amount.Clone(),
			GoalReached: c.GoalReached,
			Reward:      reward,
		})
		_, err = s.minter.Mint(ports.AsComponent(ctx, s.address), c.Donator, reward)
		return err
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "donator", c.Donator.Hex(), "campaign_id", c.CampaignID)
	return receipt, nil
}

// Campaign returns a campaign with its goal and raised total.
func (s *Service) Campaign(ctx context.Context, charity common.Address, campaignID domain.CampaignID) (*Campaign, error) {
	r := s.exec.Reader(ctx)
	rec, err := campaign.Require(ctx, r, campaign.Key(s.address, charity, campaignID))
	if err != nil {
		return nil, err
	}
	goal, err := state.GetUint256(ctx, r, s.goalKey(charity, campaignID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read campaign goal")
	}
	raised, err := state.GetUint256(ctx, r, s.raisedKey(charity, campaignID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read raised total")
	}
	return &Campaign{
		Charity:    rec.Charity,
		CharityID:  rec.CharityID,
		CampaignID: rec.CampaignID,
		Goal:       goal,
		Raised:     raised,
	}, nil
}

func (s *Service) goalKey(charity common.Address, campaignID domain.CampaignID) string {
	return state.Key(s.address, "goal", state.AddressPart(charity), campaignID.String())
}

func (s *Service) raisedKey(charity common.Address, campaignID domain.CampaignID) string {
	return state.Key(s.address, "raised", state.AddressPart(charity), campaignID.String())
}
