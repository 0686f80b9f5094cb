// Package catalog is the platform pointer-holder: it records which registry
// and rate table the deployment currently uses.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	audit "commitgood/pkg/platform/audit"
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
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "catalog and owner addresses are required")
	}
	svc := &Service{address: address, owner: owner, exec: exec, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) Address() common.Address { return s.address }

func (s *Service) SetRegistry(ctx context.Context, kontract common.Address) (*state.Receipt, error) {
	return s.set(ctx, "catalog.set_registry", "registry", kontract, EventSetRegistryContract{Kontract: kontract})
}

func (s *Service) SetRateOfGood(ctx context.Context, kontract common.Address) (*state.Receipt, error) {
	return s.set(ctx, "catalog.set_rate_of_good", "rate_of_good", kontract, EventSetRateOfGoodContract{Kontract: kontract})
}

func (s *Service) set(ctx context.Context, op, slot string, kontract common.Address, ev audit.Event) (*state.Receipt, error) {
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if domain.IsZeroAddress(kontract) || kontract == s.address {
			return dErrors.New(dErrors.CodeInvalidAddress, "contract address must not be zero or the catalog itself")
		}
		txn.Put(state.Key(s.address, slot), kontract.Bytes())
		txn.Emit(s.address, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "kontract", kontract.Hex())
	return receipt, nil
}

// Entries returns the current pointers.
func (s *Service) Entries(ctx context.Context) (*Entries, error) {
	out := &Entries{Address: s.address}
	for slot, dst := range map[string]*common.Address{"registry": &out.Registry, "rate_of_good": &out.RateOfGood} {
		v, ok, err := s.exec.Reader(ctx).Get(ctx, state.Key(s.address, slot))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read catalog")
		}
		if ok {
			*dst = common.BytesToAddress(v)
		}
	}
	return out, nil
}
