// Package auth resolves the calling address for ledger operations.
//
// The caller is asserted by the X-Caller-Address header. Nothing here verifies
// a signature; deployments that need that put a verifying proxy in front.
package auth

import (
	"log/slog"
	"net/http"

	"commitgood/pkg/domain"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/platform/httputil"
	request "commitgood/pkg/platform/middleware/request"
	"commitgood/pkg/requestcontext"
)

// HeaderCaller names the calling address.
const HeaderCaller = "X-Caller-Address"

// RequireCaller parses X-Caller-Address into the request context and rejects
// requests without one.
func RequireCaller(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(HeaderCaller)
			if raw == "" {
				logger.WarnContext(ctx, "unauthorized access - missing caller",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             string(dErrors.CodeUnauthorized),
					"error_description": "X-Caller-Address header required",
				})
				return
			}
			caller, err := domain.ParseAddress(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed caller",
					"request_id", request.GetRequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}
