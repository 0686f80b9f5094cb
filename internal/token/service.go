// Package token is the CommitGoodToken ledger: balances, allowances and a
// total supply that only active mint-agents can grow, until minting is
// finalized for good.
package token

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/internal/state"
	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/requestcontext"
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
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "token and owner addresses are required")
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

// Transfer moves amount from the caller to to.
func (s *Service) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) (*state.Receipt, error) {
	const op = "token.transfer"
	from := requestcontext.Caller(ctx)
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if domain.IsZeroAddress(to) {
			return dErrors.New(dErrors.CodeInvalidAddress, "recipient is required")
		}
		return s.move(ctx, txn, from, to, amount)
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt)
	return receipt, nil
}

// TransferFrom moves amount from owner to to, spending the caller's allowance.
func (s *Service) TransferFrom(ctx context.Context, owner, to common.Address, amount *uint256.Int) (*state.Receipt, error) {
	const op = "token.transfer_from"
	spender := requestcontext.Caller(ctx)
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if domain.IsZeroAddress(to) {
			return dErrors.New(dErrors.CodeInvalidAddress, "recipient is required")
		}
		if amount == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
		}
		allowance, err := s.read(ctx, s.allowanceKey(owner, spender))
		if err != nil {
			return err
		}
		if amount.Gt(allowance) {
			return dErrors.New(dErrors.CodeInsufficientAllowance, "amount exceeds allowance")
		}
		balance, err := s.read(ctx, s.balanceKey(owner))
		if err != nil {
			return err
		}
		if amount.Gt(balance) {
			return dErrors.New(dErrors.CodeInsufficientBalance, "amount exceeds balance")
		}
		state.PutUint256(txn, s.allowanceKey(owner, spender), new(uint256.Int).Sub(allowance, amount))
		return s.move(ctx, txn, owner, to, amount)
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt)
	return receipt, nil
}

// move debits from and credits to, emitting one Transfer. from may equal to.
func (s *Service) move(ctx context.Context, txn *state.Txn, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
	}
	fromBalance, err := s.read(ctx, s.balanceKey(from))
	if err != nil {
		return err
	}
	if amount.Gt(fromBalance) {
		return dErrors.New(dErrors.CodeInsufficientBalance, "amount exceeds balance")
	}
	state.PutUint256(txn, s.balanceKey(from), new(uint256.Int).Sub(fromBalance, amount))

	toBalance, err := s.read(ctx, s.balanceKey(to))
	if err != nil {
		return err
	}
	state.PutUint256(txn, s.balanceKey(to), new(uint256.Int).Add(toBalance, amount))

	txn.Emit(s.address, Transfer{From: from, To: to, Value: amount.Clone()})
	return nil
}

// Approve replaces the caller's allowance for spender.
func (s *Service) Approve(ctx context.Context, spender common.Address, amount *uint256.Int) (*state.Receipt, error) {
	const op = "token.approve"
	owner := requestcontext.Caller(ctx)
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if amount == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
		}
		s.setAllowance(txn, owner, spender, amount.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt)
	return receipt, nil
}

// IncreaseApproval adds delta to the caller's allowance for spender.
func (s *Service) IncreaseApproval(ctx context.Context, spender common.Address, delta *uint256.Int) (*state.Receipt, error) {
	const op = "token.increase_approval"
	owner := requestcontext.Caller(ctx)
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if delta == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
		}
		current, err := s.read(ctx, s.allowanceKey(owner, spender))
		if err != nil {
			return err
		}
		next, overflow := new(uint256.Int).AddOverflow(current, delta)
		if overflow {
			return dErrors.New(dErrors.CodeInvalidAmount, "allowance overflows token range")
		}
		s.setAllowance(txn, owner, spender, next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt)
	return receipt, nil
}

// DecreaseApproval subtracts delta from the caller's allowance for spender,
// flooring at zero.
func (s *Service) DecreaseApproval(ctx context.Context, spender common.Address, delta *uint256.Int) (*state.Receipt, error) {
	const op = "token.decrease_approval"
	owner := requestcontext.Caller(ctx)
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if delta == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
		}
		current, err := s.read(ctx, s.allowanceKey(owner, spender))
		if err != nil {
			return err
		}
		next := new(uint256.Int)
		if delta.Lt(current) {
			next.Sub(current, delta)
		}
		s.setAllowance(txn, owner, spender, next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt)
	return receipt, nil
}

func (s *Service) setAllowance(txn *state.Txn, owner, spender common.Address, value *uint256.Int) {
	state.PutUint256(txn, s.allowanceKey(owner, spender), value)
	txn.Emit(s.address, Approval{Owner: owner, Spender: spender, Value: value})
}

// SetMintAgent grants or revokes mint-agent status.
func (s *Service) SetMintAgent(ctx context.Context, addr common.Address, enabled bool) (*state.Receipt, error) {
	const op = "token.set_mint_agent"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := state.OnlyCaller(ctx, s.owner); err != nil {
			return err
		}
		if domain.IsZeroAddress(addr) || addr == s.address {
			return dErrors.New(dErrors.CodeInvalidAddress, "mint agent must not be zero or the token itself")
		}
		state.PutBool(txn, s.agentKey(addr), enabled)
		txn.Emit(s.address, MintAgentChanged{Addr: addr, State: enabled})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "agent", addr.Hex(), "state", enabled)
	return receipt, nil
}

// Mint credits amount to to and grows the supply. Only active mint-agents
// may call it, and only while minting has not been finalized.
func (s *Service) Mint(ctx context.Context, to common.Address, amount *uint256.Int) (*state.Receipt, error) {
	const op = "token.mint"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := s.onlyMintAgent(ctx); err != nil {
			return err
		}
		finished, err := s.mintingFinished(ctx)
		if err != nil {
			return err
		}
		if finished {
			return dErrors.New(dErrors.CodeMintingFinished, "minting is finished")
		}
		if domain.IsZeroAddress(to) || to == s.address {
			return dErrors.New(dErrors.CodeInvalidAddress, "mint recipient must not be zero or the token itself")
		}
		if amount == nil {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
		}

		supply, err := s.read(ctx, s.supplyKey())
		if err != nil {
			return err
		}
		nextSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
		if overflow {
			return dErrors.New(dErrors.CodeInvalidAmount, "supply overflows token range")
		}
		balance, err := s.read(ctx, s.balanceKey(to))
		if err != nil {
			return err
		}
		state.PutUint256(txn, s.supplyKey(), nextSupply)
		state.PutUint256(txn, s.balanceKey(to), new(uint256.Int).Add(balance, amount))

		txn.Emit(s.address, Mint{To: to, Amount: amount.Clone()})
		txn.Emit(s.address, Transfer{From: domain.ZeroAddress, To: to, Value: amount.Clone()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt, "to", to.Hex(), "amount", amount.Dec())
	return receipt, nil
}

// FinishMinting finalizes minting. It cannot be undone.
func (s *Service) FinishMinting(ctx context.Context) (*state.Receipt, error) {
	const op = "token.finish_minting"
	receipt, err := s.exec.Execute(ctx, op, func(ctx context.Context, txn *state.Txn) error {
		if err := s.onlyMintAgent(ctx); err != nil {
			return err
		}
		finished, err := s.mintingFinished(ctx)
		if err != nil {
			return err
		}
		if finished {
			return dErrors.New(dErrors.CodeAlreadyFinished, "minting already finished")
		}
		state.PutByte(txn, s.mintingKey(), byte(Finalized))
		txn.Emit(s.address, MintFinished{})
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.LogAudit(ctx, s.logger, op, receipt)
	return receipt, nil
}

func (s *Service) onlyMintAgent(ctx context.Context) error {
	ok, err := s.MintAgent(ctx, requestcontext.Caller(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not a mint agent")
	}
	return nil
}

func (s *Service) mintingFinished(ctx context.Context) (bool, error) {
	v, err := state.GetByte(ctx, s.exec.Reader(ctx), s.mintingKey())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read minting state")
	}
	return MintingState(v) == Finalized, nil
}

// Queries.

func (s *Service) BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	return s.read(ctx, s.balanceKey(addr))
}

func (s *Service) Allowance(ctx context.Context, owner, spender common.Address) (*uint256.Int, error) {
	return s.read(ctx, s.allowanceKey(owner, spender))
}

func (s *Service) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return s.read(ctx, s.supplyKey())
}

func (s *Service) MintAgent(ctx context.Context, addr common.Address) (bool, error) {
	ok, err := state.GetBool(ctx, s.exec.Reader(ctx), s.agentKey(addr))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read mint agent")
	}
	return ok, nil
}

func (s *Service) MintingFinished(ctx context.Context) (bool, error) {
	return s.mintingFinished(ctx)
}

func (s *Service) Info(ctx context.Context) (*Info, error) {
	supply, err := s.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	finished, err := s.mintingFinished(ctx)
	if err != nil {
		return nil, err
	}
	return &Info{
		Address:         s.address,
		Name:            Name,
		Symbol:          Symbol,
		Decimals:        Decimals,
		TotalSupply:     supply,
		MintingFinished: finished,
	}, nil
}

func (s *Service) read(ctx context.Context, key string) (*uint256.Int, error) {
	v, err := state.GetUint256(ctx, s.exec.Reader(ctx), key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger")
	}
	return v, nil
}

func (s *Service) balanceKey(addr common.Address) string {
	return state.Key(s.address, "balance", state.AddressPart(addr))
}

func (s *Service) allowanceKey(owner, spender common.Address) string {
	return state.Key(s.address, "allowance", state.AddressPart(owner), state.AddressPart(spender))
}

func (s *Service) agentKey(addr common.Address) string {
	return state.Key(s.address, "agent", state.AddressPart(addr))
}

func (s *Service) supplyKey() string  { return state.Key(s.address, "supply") }
func (s *Service) mintingKey() string { return state.Key(s.address, "minting") }
