package testutil

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"commitgood/pkg/platform/middleware/auth"
	"commitgood/pkg/requestcontext"
)

// WithCaller sets the header the caller middleware resolves into the request
// context. This simulates a client acting as caller.
func WithCaller(req *http.Request, caller common.Address) *http.Request {
	req.Header.Set(auth.HeaderCaller, caller.Hex())
	return req
}

// CallerContext returns a background context that runs ledger calls as caller.
// Useful for component tests that don't go through HTTP.
func CallerContext(caller common.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}
