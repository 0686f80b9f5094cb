package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/requestcontext"
)

// OnlyCaller fails with Unauthorized unless the caller in ctx is want.
func OnlyCaller(ctx context.Context, want common.Address) error {
	if requestcontext.Caller(ctx) != want {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}
