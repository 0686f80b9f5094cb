// Package ports declares the collaborators every action component is wired
// to at construction, and the checks they share.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Registry,Rates,Minter,Token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/internal/rates"
	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/requestcontext"
)

// Registry answers role membership queries.
type Registry interface {
	Address() common.Address
	CheckUser(ctx context.Context, addr common.Address) (bool, error)
	CheckCharity(ctx context.Context, addr common.Address) (bool, error)
}

// Rates converts measured units into a reward.
type Rates interface {
	Address() common.Address
	Reward(ctx context.Context, category rates.Category, units *uint256.Int) (*uint256.Int, error)
}

// Minter credits newly minted tokens. The caller in ctx must be a mint agent.
type Minter interface {
	Address() common.Address
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) (*state.Receipt, error)
}

// Token is the ledger surface the donation component needs.
type Token interface {
	Minter
	TransferFrom(ctx context.Context, owner, to common.Address, amount *uint256.Int) (*state.Receipt, error)
}

// RequireDependencies fails with InvalidAddress when a collaborator is
// missing or has the zero address.
func RequireDependencies(deps ...interface{ Address() common.Address }) error {
	for _, d := range deps {
		if d == nil || domain.IsZeroAddress(d.Address()) {
			return dErrors.New(dErrors.CodeInvalidAddress, "dependency address is required")
		}
	}
	return nil
}

// RequireIDs fails with InvalidId when any identifier is zero.
func RequireIDs(ids ...uint64) error {
	for _, id := range ids {
		if id == 0 {
			return dErrors.New(dErrors.CodeInvalidID, "identifier must not be zero")
		}
	}
	return nil
}

// RequireUser fails with NotRegistered unless addr holds the user role.
func RequireUser(ctx context.Context, registry Registry, addr common.Address) error {
	ok, err := registry.CheckUser(ctx, addr)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotRegistered, "address is not a registered user")
	}
	return nil
}

// RequireCharity fails with NotRegistered unless addr holds the charity role.
func RequireCharity(ctx context.Context, registry Registry, addr common.Address) error {
	ok, err := registry.CheckCharity(ctx, addr)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotRegistered, "address is not a registered charity")
	}
	return nil
}

// AsComponent switches the caller to the component's own address for a call
// into another component.
func AsComponent(ctx context.Context, self common.Address) context.Context {
	return requestcontext.WithCaller(ctx, self)
}
