// Package donation records verified cash donations and settles them on the
// token ledger in the configured mode.
package donation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/internal/actions/ports"
	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
)

type Service struct {
	address  common.Address
	owner    common.Address
	exec     *state.Executor
	registry ports.Registry
	token    ports.Token
	mode     Mode
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMode sets the settlement mode. The default is ModeMint.
func WithMode(mode Mode) Option {
	return func(s *Service) {
		if mode != "" {
			s.mode = mode
		}
	}
}

func New(address, owner common.Address, exec *state.Executor, registry ports.Registry, token ports.Token, opts ...Option) (*Service, error) {
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if domain.IsZeroAddress(address) || domain.IsZeroAddress(owner) {
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "donation and owner addresses are required")
	}
	if err := ports.RequireDependencies(registry, token); err != nil {
		return nil, err
	}
	svc := &Service{
		address:  address,
		owner:    owner,
		exec:     exec,
		registry: registry,
		token:    token,
		mode:     ModeMint,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.mode != ModeMint && svc.mode != ModeTransfer {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown donation mode")
	}
	return svc, nil
}

func (s *Service) Address() common.Address { return s.address }
func (s *Service) Mode() Mode              { return s.mode }

// Donate records a donation and settles it.
func (s *Service) Donate(ctx context.Context, d Donation) (*state.Receipt, error) {
	const op = "donation.donate"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if err := ports.RequireIDs(uint64(d.UserID), uint64(d.CharityID)); err != nil {
			return err
		}
		if err := ports.RequireUser(ctx, s.registry, d.User); err != nil {
			return err
		}
		if err := ports.RequireCharity(ctx, s.registry, d.Charity); err != nil {
			return err
		}
		if d.Amount == nil || d.Amount.IsZero() {
			return dErrors.New(dErrors.CodeInvalidAmount, "donation amount must be positive")
		}
		reward := new(uint256.Int)
		if d.Reward != nil {
			reward.Set(d.Reward)
		}
		if s.mode == ModeTransfer && !reward.IsZero() {
			return dErrors.New(dErrors.CodeInvalidAmount, "reward is not minted in transfer mode")
		}

		total, err := state.GetUint256(ctx, txn, s.totalKey(d.Charity))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read donation total")
		}
		next, overflow := new(uint256.Int).AddOverflow(total, d.Amount)
		if overflow {
			return dErrors.New(dErrors.CodeInvalidAmount, "donation total overflows token range")
		}
		state.PutUint256(txn, s.totalKey(d.Charity), next)

		txn.Emit(s.address, UserDonation{
			User:      d.User,
			UserID:    d.UserID,
			Charity:   d.Charity,
			CharityID: d.CharityID,
			Donation:  d.Amount.Clone(),
			Reward:    reward,
		})

		asSelf := ports.AsComponent(ctx, s.address)
		if s.mode == ModeTransfer {
			_, err = s.token.TransferFrom(asSelf, d.User, d.Charity, d.Amount)
			return err
		}
		_, err = s.token.Mint(asSelf, d.User, reward)
		return err
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "mode", s.mode, "charity", d.Charity.Hex())
	return receipt, nil
}

// TotalDonated returns the sum of recorded donations to charity.
func (s *Service) TotalDonated(ctx context.Context, charity common.Address) (*uint256.Int, error) {
	v, err := state.GetUint256(ctx, s.exec.Reader(ctx), s.totalKey(charity))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read donation total")
	}
	return v, nil
}

func (s *Service) totalKey(charity common.Address) string {
	return state.Key(s.address, "donated", state.AddressPart(charity))
}
