package domain

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	dErrors "commitgood/pkg/domain-errors"
)

// ParseAmount parses a non-negative decimal token quantity that fits 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be an unsigned 256-bit decimal")
	}
	return v, nil
}

// ParseRate parses a signed decimal reward rate.
func ParseRate(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rate must be a signed decimal integer")
	}
	return v, nil
}
