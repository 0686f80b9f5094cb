package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	Name     = "GOOD"
	Symbol   = "GOOD"
	Decimals = 18
)

// MintingState is the one-way minting life-cycle.
type MintingState byte

const (
	Minting MintingState = iota
	Finalized
)

func (m MintingState) String() string {
	if m == Finalized {
		return "finalized"
	}
	return "minting"
}

// Info describes the token and its supply.
type Info struct {
	Address         common.Address `json:"address"`
	Name            string         `json:"name"`
	Symbol          string         `json:"symbol"`
	Decimals        uint8          `json:"decimals"`
	TotalSupply     *uint256.Int   `json:"totalSupply"`
	MintingFinished bool           `json:"mintingFinished"`
}

type Transfer struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *uint256.Int   `json:"value"`
}

func (Transfer) EventName() string { return "Transfer" }
func (Transfer) Signature() string { return "Transfer(address,address,uint256)" }

type Approval struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Value   *uint256.Int   `json:"value"`
}

func (Approval) EventName() string { return "Approval" }
func (Approval) Signature() string { return "Approval(address,address,uint256)" }

type Mint struct {
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (Mint) EventName() string { return "Mint" }
func (Mint) Signature() string { return "Mint(address,uint256)" }

type MintFinished struct{}

func (MintFinished) EventName() string { return "MintFinished" }
func (MintFinished) Signature() string { return "MintFinished()" }

type MintAgentChanged struct {
	Addr  common.Address `json:"addr"`
	State bool           `json:"state"`
}

func (MintAgentChanged) EventName() string { return "MintAgentChanged" }
func (MintAgentChanged) Signature() string { return "MintAgentChanged(address,bool)" }
