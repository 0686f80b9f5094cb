package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "commitgood/pkg/domain-errors"
)

// ZeroAddress is the all-zero address. It never names a principal; ledger
// logs use it as the sender of minted tokens.
var ZeroAddress = common.Address{}

// IsZeroAddress reports whether a is the zero address.
func IsZeroAddress(a common.Address) bool {
	return a == ZeroAddress
}

// ParseAddress parses a 0x-prefixed hex address. The zero address parses
// successfully; components decide whether it is acceptable.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed hex")
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	return common.HexToAddress(s), nil
}
