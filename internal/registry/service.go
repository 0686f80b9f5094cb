// Package registry keeps the owner-managed membership table for the user and
// charity roles. Action components consult it before processing any request
// that names an address.
package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
)

type Service struct {
	address common.Address
	owner   common.Address
	exec    *state.Executor
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(address, owner common.Address, exec *state.Executor, opts ...Option) (*Service, error) {
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if domain.IsZeroAddress(address) || domain.IsZeroAddress(owner) {
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "registry and owner addresses are required")
	}
	svc := &Service{
		address: address,
		owner:   owner,
		exec:    exec,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) Address() common.Address { return s.address }
func (s *Service) Owner() common.Address   { return s.owner }

func (s *Service) AuthorizeUser(ctx context.Context, addr common.Address, enabled bool) (*state.Receipt, error) {
	return s.authorize(ctx, RoleUser, addr, enabled)
}

func (s *Service) AuthorizeCharity(ctx context.Context, addr common.Address, enabled bool) (*state.Receipt, error) {
	return s.authorize(ctx, RoleCharity, addr, enabled)
}

func (s *Service) authorize(ctx context.Context, role Role, addr common.Address, enabled bool) (*state.Receipt, error) {
	op := "registry.authorize_" + string(role)
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if domain.IsZeroAddress(addr) {
			return dErrors.New(dErrors.CodeInvalidAddress, "address is required")
		}
		state.PutBool(txn, s.key(role, addr), enabled)
		txn.Emit(s.address, Authorize{Registrar: addr, Role: role, Enabled: enabled})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "address", addr.Hex(), "enabled", enabled)
	return receipt, nil
}

// CheckUser reports whether addr holds the user role.
func (s *Service) CheckUser(ctx context.Context, addr common.Address) (bool, error) {
	return s.check(ctx, RoleUser, addr)
}

// CheckCharity reports whether addr holds the charity role.
func (s *Service) CheckCharity(ctx context.Context, addr common.Address) (bool, error) {
	return s.check(ctx, RoleCharity, addr)
}

func (s *Service) check(ctx context.Context, role Role, addr common.Address) (bool, error) {
	if domain.IsZeroAddress(addr) {
		return false, dErrors.New(dErrors.CodeInvalidAddress, "address is required")
	}
	ok, err := state.GetBool(ctx, s.exec.Reader(ctx), s.key(role, addr))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registry")
	}
	return ok, nil
}

func (s *Service) key(role Role, addr common.Address) string {
	return state.Key(s.address, string(role), state.AddressPart(addr))
}
