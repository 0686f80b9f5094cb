// Package volunteer runs volunteering campaigns. Each campaign moves from
// nonexistent to created; each volunteer within it moves from not signed up
// to signed up to verified, and is rewarded per hour on verification.
package volunteer

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
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "volunteer and owner addresses are required")
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

func (s *Service) CreateVolunteerCampaign(ctx context.Context, charity common.Address, charityID domain.CharityID, campaignID domain.CampaignID) (*state.Receipt, error) {
	const op = "volunteer.create_campaign"
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
		txn.Emit(s.address, CreateVolunteerCampaign{
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

// SignUp enrolls a user in an existing campaign.
func (s *Service) SignUp(ctx context.Context, p Participation) (*state.Receipt, error) {
	const op = "volunteer.sign_up"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := s.validate(ctx, txn, p); err != nil {
			return err
		}
		rec, err := s.loadSignup(ctx, txn, p)
		if err != nil {
			return err
		}
		if rec.Status != StatusNotSignedUp {
			return dErrors.New(dErrors.CodeAlreadySignedUp, "user already signed up for campaign")
		}
		if err := s.storeSignup(txn, p, signupRecord{UserID: p.UserID, Status: StatusSignedUp}); err != nil {
			return err
		}
		txn.Emit(s.address, VolunteerSignUp{
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

// Verify rewards a signed-up volunteer with hours × volunteer rate. The
// signup is marked verified before the reward is minted.
func (s *Service) Verify(ctx context.Context, p Participation, hours *uint256.Int) (*state.Receipt, error) {
	const op = "volunteer.verify"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if err := s.validate(ctx, txn, p); err != nil {
			return err
		}
		rec, err := s.loadSignup(ctx, txn, p)
		if err != nil {
			return err
		}
		if rec.Status != StatusSignedUp {
			return dErrors.New(dErrors.CodeSignupNotFound, "no pending signup for user")
		}
		if hours == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "hours are required")
		}
		reward, err := s.rates.Reward(ctx, rates.CategoryVolunteer, hours)
		if err != nil {
			return err
		}

		rec.Status = StatusVerified
		rec.Hours = hours.Dec()
		if err := s.storeSignup(txn, p, rec); err != nil {
			return err
		}
		txn.Emit(s.address, VolunteerVerify{
			User:       p.User,
			UserID:     p.UserID,
			Charity:    p.Charity,
			CharityID:  p.CharityID,
			CampaignID: p.CampaignID,
			Time:       hours.Clone(),
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

// Signup returns a user's signup state for a campaign.
func (s *Service) Signup(ctx context.Context, charity common.Address, campaignID domain.CampaignID, user common.Address) (*Signup, error) {
	r := s.exec.Reader(ctx)
	if _, err := campaign.Require(ctx, r, campaign.Key(s.address, charity, campaignID)); err != nil {
		return nil, err
	}
	rec, err := s.loadSignup(ctx, r, Participation{User: user, Charity: charity, CampaignID: campaignID})
	if err != nil {
		return nil, err
	}
	out := &Signup{
		Charity:    charity,
		CampaignID: campaignID,
		User:       user,
		UserID:     rec.UserID,
		Status:     rec.Status,
	}
	if rec.Hours != "" {
		hours, err := uint256.FromDecimal(rec.Hours)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed signup hours")
		}
		out.Hours = hours
	}
	return out, nil
}

// validate runs identifier, registry and campaign checks in that order.
func (s *Service) validate(ctx context.Context, r state.Reader, p Participation) error {
	if err := ports.RequireIDs(uint64(p.UserID), uint64(p.CharityID), uint64(p.CampaignID)); err != nil {
		return err
	}
	if err := ports.RequireUser(ctx, s.registry, p.User); err != nil {
		return err
	}
	if err := ports.RequireCharity(ctx, s.registry, p.Charity); err != nil {
		return err
	}
	_, err := campaign.Require(ctx, r, campaign.Key(s.address, p.Charity, p.CampaignID))
	return err
}

func (s *Service) loadSignup(ctx context.Context, r state.Reader, p Participation) (signupRecord, error) {
	rec := signupRecord{Status: StatusNotSignedUp}
	if _, err := state.GetJSON(ctx, r, s.signupKey(p), &rec); err != nil {
		return signupRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read signup")
	}
	return rec, nil
}

func (s *Service) storeSignup(txn *state.Txn, p Participation, rec signupRecord) error {
	if err := state.PutJSON(txn, s.signupKey(p), rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store signup")
	}
	return nil
}

func (s *Service) signupKey(p Participation) string {
	return state.Key(s.address, "signup", state.AddressPart(p.Charity), p.CampaignID.String(), state.AddressPart(p.User))
}
