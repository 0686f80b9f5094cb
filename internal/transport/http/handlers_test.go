package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"commitgood/internal/ledger"
	"commitgood/internal/ratelimit"
	"commitgood/internal/rates"
	"commitgood/internal/state"
	"commitgood/internal/state/memory"
	audit "commitgood/pkg/platform/audit"
	"commitgood/pkg/platform/audit/publishers/fanout"
	auditmemory "commitgood/pkg/platform/audit/store/memory"
	"commitgood/pkg/platform/middleware/admin"
	"commitgood/pkg/platform/middleware/auth"
	"commitgood/pkg/testutil"
)

// =============================================================================
// HTTP Handler Suite
// =============================================================================
// Justification: handlers run against a real ledger on the memory backend so
// status mapping and JSON shapes are checked against actual component errors.

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	ledger *ledger.Ledger
	events *auditmemory.InMemoryStore

	owner   common.Address
	user    common.Address
	charity common.Address
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

const adminToken = "operator-secret"

func (s *HandlerSuite) SetupTest() {
	s.owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	s.user = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	s.charity = common.HexToAddress("0x00000000000000000000000000000000000000d5")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.events = auditmemory.NewInMemoryStore(100)
	publisher := fanout.NewPublisher(fanout.WithInlineSink("recent", fanout.SinkFunc(
		func(ctx context.Context, logs []audit.Log) error { return s.events.Append(ctx, logs...) },
	)))
	exec, err := state.NewExecutor(context.Background(), memory.New(), state.WithPublisher(publisher))
	s.Require().NoError(err)

	s.ledger, err = ledger.New(exec, ledger.Config{
		Owner:        s.owner,
		Deployer:     common.HexToAddress("0x00000000000000000000000000000000000000a0"),
		InitialRates: map[rates.Category]*big.Int{rates.CategoryVolunteer: big.NewInt(7)},
		Logger:       logger,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Bootstrap(context.Background()))

	s.router = NewRouter(New(s.ledger, s.events, logger), RouterConfig{
		AdminToken: adminToken,
		Health: map[string]HealthCheck{
			"state": func(context.Context) error { return nil },
		},
	})
}

func (s *HandlerSuite) do(method, path string, caller *common.Address, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != nil {
		req.Header.Set(auth.HeaderCaller, caller.Hex())
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *HandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]string
	s.decode(w, &body)
	return body["error"]
}

func (s *HandlerSuite) authorize(path string, addr common.Address) {
	enabled := true
	w := s.do(http.MethodPost, path, &s.owner, map[string]any{"address": addr.Hex(), "enabled": enabled})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *HandlerSuite) TestAuthorizeUser() {
	s.Run("owner authorizes and the check reflects it", func() {
		w := s.do(http.MethodPost, "/registry/users", &s.owner, map[string]any{"address": s.user.Hex(), "enabled": true})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var receipt struct {
			TxID string `json:"txId"`
			Logs []struct {
				Event string         `json:"event"`
				Args  map[string]any `json:"args"`
			} `json:"logs"`
		}
		s.decode(w, &receipt)
		s.NotEmpty(receipt.TxID)
		s.Require().Len(receipt.Logs, 1)
		s.Equal("Authorize", receipt.Logs[0].Event)
		s.Equal("user", receipt.Logs[0].Args["role"])

		w = s.do(http.MethodGet, "/registry/users/"+s.user.Hex(), nil, nil)
		s.Require().Equal(http.StatusOK, w.Code)
		var check CheckResponse
		s.decode(w, &check)
		s.True(check.Authorized)
	})

	s.Run("non-owner is forbidden", func() {
		w := s.do(http.MethodPost, "/registry/users", &s.user, map[string]any{"address": s.user.Hex(), "enabled": true})
		s.Equal(http.StatusForbidden, w.Code)
		s.Equal("unauthorized", s.errorCode(w))
	})

	s.Run("missing caller is rejected", func() {
		w := s.do(http.MethodPost, "/registry/users", nil, map[string]any{"address": s.user.Hex(), "enabled": true})
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("missing enabled flag fails validation", func() {
		w := s.do(http.MethodPost, "/registry/users", &s.owner, map[string]any{"address": s.user.Hex()})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("validation_error", s.errorCode(w))
	})

	s.Run("zero address is invalid", func() {
		w := s.do(http.MethodPost, "/registry/charities", &s.owner, map[string]any{"address": common.Address{}.Hex(), "enabled": true})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("invalid_address", s.errorCode(w))
	})
}

func (s *HandlerSuite) TestRates() {
	w := s.do(http.MethodPut, "/rates/delivery", &s.owner, map[string]string{"value": "-3"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/rates", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var table RatesResponse
	s.decode(w, &table)
	s.Equal("-3", table.Delivery)
	s.Equal("7", table.Volunteer)
	s.Equal("0", table.InKind)

	w = s.do(http.MethodPut, "/rates/charity", &s.owner, map[string]string{"value": "1"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/rates/inkind", &s.owner, map[string]string{"value": "1.5"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation_error", s.errorCode(w))
}

func (s *HandlerSuite) TestVolunteerFlowMintsReward() {
	s.authorize("/registry/users", s.user)
	s.authorize("/registry/charities", s.charity)

	campaign := map[string]string{"charity": s.charity.Hex(), "charityId": "11", "campaignId": "3"}
	w := s.do(http.MethodPost, "/volunteer/campaigns", &s.owner, campaign)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/volunteer/campaigns", &s.owner, campaign)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("campaign_exists", s.errorCode(w))

	participation := map[string]string{
		"user": s.user.Hex(), "userId": "4",
		"charity": s.charity.Hex(), "charityId": "11", "campaignId": "3",
	}
	w = s.do(http.MethodPost, "/volunteer/signups", &s.user, participation)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	participation["hours"] = "6"
	w = s.do(http.MethodPost, "/volunteer/verifications", &s.user, participation)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/volunteer/verifications", &s.owner, participation)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var receipt struct {
		Logs []struct {
			Event string `json:"event"`
		} `json:"logs"`
	}
	s.decode(w, &receipt)
	s.Require().Len(receipt.Logs, 3)
	s.Equal("VolunteerVerify", receipt.Logs[0].Event)
	s.Equal("Mint", receipt.Logs[1].Event)
	s.Equal("Transfer", receipt.Logs[2].Event)

	w = s.do(http.MethodGet, "/token/balances/"+s.user.Hex(), nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var balance BalanceResponse
	s.decode(w, &balance)
	s.Equal("42", balance.Balance)

	w = s.do(http.MethodGet, "/volunteer/signups/"+s.charity.Hex()+"/3/"+s.user.Hex(), nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var signup map[string]any
	s.decode(w, &signup)
	s.Equal("verified", signup["status"])

	w = s.do(http.MethodPost, "/volunteer/verifications", &s.owner, participation)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("signup_not_found", s.errorCode(w))
}

func (s *HandlerSuite) TestTokenErrors() {
	w := s.do(http.MethodPost, "/token/transfer", &s.user, map[string]string{"to": s.charity.Hex(), "amount": "1"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("insufficient_balance", s.errorCode(w))

	w = s.do(http.MethodPost, "/token/transfer", &s.user, map[string]string{"to": s.charity.Hex(), "amount": "-1"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation_error", s.errorCode(w))

	w = s.do(http.MethodPost, "/token/mint", &s.user, map[string]string{"to": s.user.Hex(), "amount": "5"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/token/approve", &s.user, map[string]string{"spender": s.charity.Hex(), "amount": "9"})
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/token/allowances/"+s.user.Hex()+"/"+s.charity.Hex(), nil, nil)
	var allowance AllowanceResponse
	s.decode(w, &allowance)
	s.Equal("9", allowance.Allowance)

	w = s.do(http.MethodGet, "/token/balances/not-an-address", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestTokenInfo() {
	w := s.do(http.MethodGet, "/token", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var info map[string]any
	s.decode(w, &info)
	s.Equal("GOOD", info["name"])
	s.Equal("GOOD", info["symbol"])
	s.Equal(float64(18), info["decimals"])
	s.Equal("0", info["totalSupply"])
	s.Equal(false, info["mintingFinished"])

	w = s.do(http.MethodGet, "/token/mint-agents/"+s.ledger.Addresses.Volunteer.Hex(), nil, nil)
	var agent MintAgentResponse
	s.decode(w, &agent)
	s.True(agent.Enabled)
}

func (s *HandlerSuite) TestAdminRoutes() {
	w := s.do(http.MethodGet, "/admin/events", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/events?limit=2", nil)
	req.Header.Set(admin.HeaderAdminToken, adminToken)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	var events struct {
		Events []struct {
			Seq   uint64 `json:"seq"`
			Event string `json:"event"`
		} `json:"events"`
	}
	s.decode(w, &events)
	s.Require().Len(events.Events, 2)
	s.Less(events.Events[0].Seq, events.Events[1].Seq)
	s.Equal("EventSetRateOfGoodContract", events.Events[1].Event)

	req = httptest.NewRequest(http.MethodGet, "/admin/deployment", nil)
	req.Header.Set(admin.HeaderAdminToken, adminToken)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	var deployment DeploymentResponse
	s.decode(w, &deployment)
	s.Equal(s.ledger.Addresses, deployment.Addresses)
	s.Equal(s.owner, deployment.Owner)
}

func (s *HandlerSuite) TestCatalog() {
	w := s.do(http.MethodGet, "/catalog", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var entries map[string]string
	s.decode(w, &entries)
	s.Equal(s.ledger.Addresses.Registry.Hex(), common.HexToAddress(entries["registry"]).Hex())

	w = s.do(http.MethodPut, "/catalog/registry", &s.owner, map[string]string{"kontract": s.ledger.Addresses.Catalog.Hex()})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("invalid_address", s.errorCode(w))
}

func (s *HandlerSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	degraded := NewRouter(New(s.ledger, nil, logger), RouterConfig{
		Health: map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("down") }},
	})
	w = httptest.NewRecorder()
	degraded.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "down")
}

func (s *HandlerSuite) TestRateLimitedMutations() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.New(ratelimit.NewMemoryStore(nil), 1, time.Minute, logger)
	router := NewRouter(New(s.ledger, nil, logger), RouterConfig{RateLimit: limiter.Limit})

	send := func() *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/token/finish-minting", map[string]string{})
		req = testutil.WithCaller(req, common.HexToAddress("0x00000000000000000000000000000000000000d9"))
		return testutil.DoRequest(router, req)
	}

	first := send()
	s.Equal(http.StatusForbidden, first.Code)
	s.Equal("0", first.Header().Get("X-RateLimit-Remaining"))

	second := send()
	testutil.AssertStatusAndError(s.T(), second, http.StatusTooManyRequests, "rate_limit_exceeded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rates", nil))
	s.Equal(http.StatusOK, w.Code, "reads are not limited")
}
