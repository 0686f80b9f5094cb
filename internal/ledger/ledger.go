// Package ledger wires every component onto one executor the way the
// deployment script does: fixed address derivation order, immutable
// references, mint-agent grants and optional initial rates.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"commitgood/internal/actions/delivery"
	"commitgood/internal/actions/donation"
	"commitgood/internal/actions/fundraising"
	"commitgood/internal/actions/inkind"
	"commitgood/internal/actions/volunteer"
	"commitgood/internal/catalog"
	"commitgood/internal/rates"
	"commitgood/internal/registry"
	"commitgood/internal/state"
	"commitgood/internal/token"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/requestcontext"
)

// Addresses are the derived component addresses.
type Addresses struct {
	Registry       common.Address `json:"registry"`
	RateOfGood     common.Address `json:"rateOfGood"`
	Delivery       common.Address `json:"delivery"`
	FundRaising    common.Address `json:"fundRaising"`
	InKindDonation common.Address `json:"inKindDonation"`
	Volunteer      common.Address `json:"volunteer"`
	Donation       common.Address `json:"donation"`
	Catalog        common.Address `json:"catalog"`
	Token          common.Address `json:"token"`
}

// DeriveAddresses assigns component addresses from the deployer's nonce
// sequence, starting at nonce zero.
func DeriveAddresses(deployer common.Address) Addresses {
	next := func(nonce uint64) common.Address { return crypto.CreateAddress(deployer, nonce) }
	return Addresses{
		Registry:       next(0),
		RateOfGood:     next(1),
		Delivery:       next(2),
		FundRaising:    next(3),
		InKindDonation: next(4),
		Volunteer:      next(5),
		Donation:       next(6),
		Catalog:        next(7),
		Token:          next(8),
	}
}

// Config describes one deployment.
type Config struct {
	Owner        common.Address
	Deployer     common.Address
	DonationMode donation.Mode
	InitialRates map[rates.Category]*big.Int
	Logger       *slog.Logger
}

// Ledger holds every wired component.
type Ledger struct {
	Addresses   Addresses
	Owner       common.Address
	Executor    *state.Executor
	Registry    *registry.Service
	Rates       *rates.Service
	Token       *token.Service
	Delivery    *delivery.Service
	Donation    *donation.Service
	FundRaising *fundraising.Service
	InKind      *inkind.Service
	Volunteer   *volunteer.Service
	Catalog     *catalog.Service

	initialRates map[rates.Category]*big.Int
}

// New constructs the components without touching state.
func New(exec *state.Executor, cfg Config) (*Ledger, error) {
	if exec == nil {
		return nil, errors.New("executor is required")
	}
	if domain.IsZeroAddress(cfg.Owner) || domain.IsZeroAddress(cfg.Deployer) {
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "owner and deployer addresses are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addrs := DeriveAddresses(cfg.Deployer)
	l := &Ledger{Addresses: addrs, Owner: cfg.Owner, Executor: exec, initialRates: cfg.InitialRates}

	var err error
	if l.Registry, err = registry.New(addrs.Registry, cfg.Owner, exec, registry.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if l.Rates, err = rates.New(addrs.RateOfGood, cfg.Owner, exec, rates.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("rate of good: %w", err)
	}
	if l.Token, err = token.New(addrs.Token, cfg.Owner, exec, token.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	if l.Delivery, err = delivery.New(addrs.Delivery, cfg.Owner, exec, l.Registry, l.Rates, l.Token, delivery.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("delivery: %w", err)
	}
	if l.FundRaising, err = fundraising.New(addrs.FundRaising, cfg.Owner, exec, l.Registry, l.Rates, l.Token, fundraising.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("fund raising: %w", err)
	}
	if l.InKind, err = inkind.New(addrs.InKindDonation, cfg.Owner, exec, l.Registry, l.Rates, l.Token, inkind.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("in-kind donation: %w", err)
	}
	if l.Volunteer, err = volunteer.New(addrs.Volunteer, cfg.Owner, exec, l.Registry, l.Rates, l.Token, volunteer.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("volunteer: %w", err)
	}
	if l.Donation, err = donation.New(addrs.Donation, cfg.Owner, exec, l.Registry, l.Token,
		donation.WithMode(cfg.DonationMode), donation.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("donation: %w", err)
	}
	if l.Catalog, err = catalog.New(addrs.Catalog, cfg.Owner, exec, catalog.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return l, nil
}

// MintingComponents are the components that need mint-agent status.
func (l *Ledger) MintingComponents() []common.Address {
	return []common.Address{
		l.Addresses.Delivery,
		l.Addresses.FundRaising,
		l.Addresses.InKindDonation,
		l.Addresses.Volunteer,
		l.Addresses.Donation,
	}
}

// Bootstrap performs the owner's initial governance calls. Calls whose
// effect is already in place are skipped, so restarting against durable
// state emits nothing new.
func (l *Ledger) Bootstrap(ctx context.Context) error {
	ctx = requestcontext.WithCaller(ctx, l.Owner)

	for _, agent := range l.MintingComponents() {
		ok, err := l.Token.MintAgent(ctx, agent)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := l.Token.SetMintAgent(ctx, agent, true); err != nil {
			return fmt.Errorf("grant mint agent %s: %w", agent.Hex(), err)
		}
	}

	for _, category := range rates.Categories {
		want, ok := l.initialRates[category]
		if !ok || want == nil {
			continue
		}
		current, err := l.Rates.Rate(ctx, category)
		if err != nil {
			return err
		}
		if current.Cmp(want) == 0 {
			continue
		}
		if _, err := l.Rates.Set(ctx, category, want); err != nil {
			return fmt.Errorf("seed %s rate: %w", category, err)
		}
	}

	entries, err := l.Catalog.Entries(ctx)
	if err != nil {
		return err
	}
	if entries.Registry != l.Addresses.Registry {
		if _, err := l.Catalog.SetRegistry(ctx, l.Addresses.Registry); err != nil {
			return fmt.Errorf("catalog registry: %w", err)
		}
	}
	if entries.RateOfGood != l.Addresses.RateOfGood {
		if _, err := l.Catalog.SetRateOfGood(ctx, l.Addresses.RateOfGood); err != nil {
			return fmt.Errorf("catalog rate of good: %w", err)
		}
	}
	return nil
}
