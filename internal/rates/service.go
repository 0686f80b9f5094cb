// Package rates is the RateOfGood table: one owner-settable signed reward
// rate per action category, and the reward arithmetic built on it.
package rates

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	audit "commitgood/pkg/platform/audit"
)

var tracer = otel.Tracer("commitgood/rates")

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
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "rate table and owner addresses are required")
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

func (s *Service) SetDeliveryRoG(ctx context.Context, value *big.Int) (*state.Receipt, error) {
	return s.set(ctx, CategoryDelivery, value)
}

func (s *Service) SetVolunteerRoG(ctx context.Context, value *big.Int) (*state.Receipt, error) {
	return s.set(ctx, CategoryVolunteer, value)
}

func (s *Service) SetFundRaisingRoG(ctx context.Context, value *big.Int) (*state.Receipt, error) {
	return s.set(ctx, CategoryFundRaising, value)
}

func (s *Service) SetInKindRoG(ctx context.Context, value *big.Int) (*state.Receipt, error) {
	return s.set(ctx, CategoryInKind, value)
}

// Set dispatches to the setter for category.
func (s *Service) Set(ctx context.Context, category Category, value *big.Int) (*state.Receipt, error) {
	if !category.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown rate category")
	}
	return s.set(ctx, category, value)
}

func (s *Service) set(ctx context.Context, category Category, value *big.Int) (*state.Receipt, error) {
	if value == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rate value is required")
	}
	value = new(big.Int).Set(value)
	op := "rates.set_" + string(category)

	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		state.PutBigInt(txn, s.key(category), value)
		txn.Emit(s.address, rateEvent(category, value))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if value.Sign() < 0 {
		s.logger.WarnContext(ctx, "negative reward rate accepted",
			"category", category,
			"value", value.String(),
		)
	}
	state.LogAudit(ctx, s.logger, op, receipt, "category", category, "value", value.String())
	return receipt, nil
}

func rateEvent(category Category, value *big.Int) audit.Event {
	switch category {
	case CategoryDelivery:
		return EventSetDeliveryRateOfGood{Value: value}
	case CategoryVolunteer:
		return EventSetVolunteerRateOfGood{Value: value}
	case CategoryFundRaising:
		return EventSetFundRaisingRateOfGood{Value: value}
	default:
		return EventSetInKindRateOfGood{Value: value}
	}
}

// Rate returns the current rate for category, zero when never set.
func (s *Service) Rate(ctx context.Context, category Category) (*big.Int, error) {
	v, err := state.GetBigInt(ctx, s.exec.Reader(ctx), s.key(category))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read rate")
	}
	return v, nil
}

// Rates returns the whole table.
func (s *Service) Rates(ctx context.Context) (*Table, error) {
	values := make(map[Category]*big.Int, len(Categories))
	for _, c := range Categories {
		v, err := s.Rate(ctx, c)
		if err != nil {
			return nil, err
		}
		values[c] = v
	}
	return &Table{
		Delivery:    values[CategoryDelivery],
		Volunteer:   values[CategoryVolunteer],
		FundRaising: values[CategoryFundRaising],
		InKind:      values[CategoryInKind],
	}, nil
}

// Reward computes units × rate for category. A negative product or one that
// does not fit 256 bits fails with InvalidAmount.
func (s *Service) Reward(ctx context.Context, category Category, units *uint256.Int) (*uint256.Int, error) {
	ctx, span := tracer.Start(ctx, "rates.reward")
	defer span.End()
	span.SetAttributes(attribute.String("category", string(category)))

	rate, err := s.Rate(ctx, category)
	if err != nil {
		return nil, err
	}
	return ComputeReward(units, rate)
}

// ComputeReward multiplies units by rate within the token's range.
func ComputeReward(units *uint256.Int, rate *big.Int) (*uint256.Int, error) {
	if units == nil || rate == nil {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "units and rate are required")
	}
	product := new(big.Int).Mul(units.ToBig(), rate)
	if product.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "reward would be negative")
	}
	reward, overflow := uint256.FromBig(product)
	if overflow {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "reward overflows token range")
	}
	return reward, nil
}

func (s *Service) key(category Category) string {
	return state.Key(s.address, "rate", string(category))
}
