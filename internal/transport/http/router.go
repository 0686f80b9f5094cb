package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"commitgood/pkg/platform/httputil"
	"commitgood/pkg/platform/middleware/admin"
	"commitgood/pkg/platform/middleware/auth"
	"commitgood/pkg/platform/middleware/metadata"
	request "commitgood/pkg/platform/middleware/request"
	"commitgood/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries the transport-level settings.
type RouterConfig struct {
	AdminToken     string
	RequestTimeout time.Duration
	Health         map[string]HealthCheck
	Metrics        http.Handler
	// RateLimit, when set, wraps every mutating route after the caller is known.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter wires every route behind the shared middleware chain.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()
	r.Use(request.Recovery(h.logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(h.logger))
	r.Use(request.Timeout(cfg.RequestTimeout))
	r.Use(request.ContentTypeJSON)

	r.Get("/health", HealthHandler(cfg.Health))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	h.Register(r, cfg)
	return r
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router, cfg RouterConfig) {
	r.Get("/registry/users/{address}", h.handleCheckUser)
	r.Get("/registry/charities/{address}", h.handleCheckCharity)
	r.Get("/rates", h.handleGetRates)
	r.Get("/token", h.handleTokenInfo)
	r.Get("/token/balances/{address}", h.handleBalanceOf)
	r.Get("/token/allowances/{owner}/{spender}", h.handleAllowance)
	r.Get("/token/mint-agents/{address}", h.handleGetMintAgent)
	r.Get("/donations/{charity}/total", h.handleTotalDonated)
	r.Get("/fundraising/campaigns/{charity}/{campaignId}", h.handleGetFundRaiserCampaign)
	r.Get("/volunteer/signups/{charity}/{campaignId}/{user}", h.handleGetSignup)
	r.Get("/catalog", h.handleGetCatalog)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller(h.logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.Post("/registry/users", h.handleAuthorizeUser)
		r.Post("/registry/charities", h.handleAuthorizeCharity)
		r.Put("/rates/{category}", h.handleSetRate)

		r.Post("/token/transfer", h.handleTransfer)
		r.Post("/token/transfer-from", h.handleTransferFrom)
		r.Post("/token/approve", h.handleApprove)
		r.Post("/token/approval/increase", h.handleIncreaseApproval)
		r.Post("/token/approval/decrease", h.handleDecreaseApproval)
		r.Post("/token/mint", h.handleMint)
		r.Post("/token/finish-minting", h.handleFinishMinting)
		r.Post("/token/mint-agents", h.handleSetMintAgent)

		r.Post("/delivery/requests", h.handleDeliveryRequested)
		r.Post("/delivery/verifications", h.handleDeliveryVerify)
		r.Post("/donations", h.handleDonate)
		r.Post("/fundraising/campaigns", h.handleCreateFundRaiserCampaign)
		r.Post("/fundraising/donations", h.handleRaiseFunds)
		r.Post("/inkind/campaigns", h.handleCreateInKindCampaign)
		r.Post("/inkind/pledges", h.handleInKindPledge)
		r.Post("/inkind/verifications", h.handleInKindVerify)
		r.Post("/volunteer/campaigns", h.handleCreateVolunteerCampaign)
		r.Post("/volunteer/signups", h.handleVolunteerSignUp)
		r.Post("/volunteer/verifications", h.handleVolunteerVerify)

		r.Put("/catalog/registry", h.handleSetCatalogRegistry)
		r.Put("/catalog/rates", h.handleSetCatalogRates)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, h.logger))
		r.Get("/events", h.handleRecentEvents)
		r.Get("/deployment", h.handleDeployment)
	})
}

// HealthHandler reports "ok" when every check passes and 503 otherwise.
func HealthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				result["status"] = "degraded"
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
