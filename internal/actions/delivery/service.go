// Package delivery records delivery requests and rewards couriers for
// verified deliveries in proportion to the weight carried.
package delivery

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

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
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "delivery and owner addresses are required")
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

// DeliveryRequested logs a recipient's request for a delivery. Nothing is
// minted.
func (s *Service) DeliveryRequested(ctx context.Context, recipient common.Address, recipientID domain.ActorID, itemDescription string) (*state.Receipt, error) {
	const op = "delivery.requested"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := ports.RequireIDs(uint64(recipientID)); err != nil {
			return err
		}
		if err := ports.RequireUser(ctx, s.registry, recipient); err != nil {
			return err
		}
		txn.Emit(s.address, EventDeliveryRequested{
			Recipient:       recipient,
			RecipientID:     recipientID,
			ItemDescription: itemDescription,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "recipient", recipient.Hex())
	return receipt, nil
}

// DeliveryVerify rewards the courier with totalWeight × delivery rate.
func (s *Service) DeliveryVerify(ctx context.Context, v Verification) (*state.Receipt, error) {
	const op = "delivery.verify"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if err := ports.RequireIDs(uint64(v.CourierID), uint64(v.RecipientID)); err != nil {
			return err
		}
		if err := ports.RequireUser(ctx, s.registry, v.Courier); err != nil {
			return err
		}
		if err := ports.RequireUser(ctx, s.registry, v.Recipient); err != nil {
			return err
		}
		if v.TotalWeight == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "total weight is required")
		}
		reward, err := s.rates.Reward(ctx, rates.CategoryDelivery, v.TotalWeight)
		if err != nil {
			return err
		}

		txn.Emit(s.address, EventDeliveryVerify{
			Courier:         v.Courier,
			CourierID:       v.CourierID,
			Recipient:       v.Recipient,
			RecipientID:     v.RecipientID,
			ItemDescription: v.ItemDescription,
			TotalWeight:     new(uint256.Int).Set(v.TotalWeight),
			Reward:          reward,
		})
		_, err = s.minter.Mint(ports.AsComponent(ctx, s.address), v.Courier, reward)
		return err
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "courier", v.Courier.Hex())
	return receipt, nil
}
