package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitgood/internal/actions/donation"
	"commitgood/internal/ledger"
	"commitgood/internal/state"
	"commitgood/internal/state/memory"
	"commitgood/pkg/testutil"
)

func TestDonationTransferModeOverHTTP(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	user := common.HexToAddress("0x00000000000000000000000000000000000000d4")
	charity := common.HexToAddress("0x00000000000000000000000000000000000000d5")

	exec, err := state.NewExecutor(context.Background(), memory.New())
	require.NoError(t, err)
	l, err := ledger.New(exec, ledger.Config{
		Owner:        owner,
		Deployer:     common.HexToAddress("0x00000000000000000000000000000000000000a0"),
		DonationMode: donation.ModeTransfer,
	})
	require.NoError(t, err)
	require.NoError(t, l.Bootstrap(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(New(l, nil, logger), RouterConfig{})
	for path, addr := range map[string]common.Address{"/registry/users": user, "/registry/charities": charity} {
		rr := testutil.PostAs(t, router, owner, path, map[string]any{"address": addr.Hex(), "enabled": true})
		testutil.AssertStatus(t, rr, http.StatusOK)
	}

	// Fund the user through the owner acting as a mint agent.
	testutil.AssertStatus(t, testutil.PostAs(t, router, owner, "/token/mint-agents",
		map[string]any{"address": owner.Hex(), "enabled": true}), http.StatusOK)
	testutil.AssertStatus(t, testutil.PostAs(t, router, owner, "/token/mint",
		map[string]string{"to": user.Hex(), "amount": "100"}), http.StatusOK)

	donate := map[string]string{
		"user": user.Hex(), "userId": "4",
		"charity": charity.Hex(), "charityId": "11",
		"amount": "30",
	}

	testutil.Given(t, "a user without an allowance for the donation component", func(t *testing.T) {
		testutil.When(t, "the owner records a donation", func(t *testing.T) {
			rr := testutil.PostAs(t, router, owner, "/donations", donate)
			testutil.Then(t, "the transfer is refused", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "insufficient_allowance")
			})
		})
	})

	testutil.Given(t, "a user who approved the donation component", func(t *testing.T) {
		rr := testutil.PostAs(t, router, user, "/token/approve",
			map[string]string{"spender": l.Addresses.Donation.Hex(), "amount": "30"})
		testutil.AssertStatus(t, rr, http.StatusOK)

		testutil.When(t, "a reward is supplied in transfer mode", func(t *testing.T) {
			withReward := map[string]string{}
			for k, v := range donate {
				withReward[k] = v
			}
			withReward["reward"] = "1"
			rr := testutil.PostAs(t, router, owner, "/donations", withReward)
			testutil.Then(t, "the donation is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_amount")
			})
		})

		testutil.When(t, "the owner records the donation", func(t *testing.T) {
			rr := testutil.PostAs(t, router, owner, "/donations", donate)
			testutil.Then(t, "tokens move from user to charity", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				assert.Equal(t, []string{"UserDonation", "Transfer"}, testutil.ReceiptEvents(t, rr))

				balance := testutil.UnmarshalResponse[BalanceResponse](t,
					testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/token/balances/"+charity.Hex())))
				assert.Equal(t, "30", balance.Balance)

				total := testutil.UnmarshalResponse[BalanceResponse](t,
					testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/donations/"+charity.Hex()+"/total")))
				assert.Equal(t, "30", total.Balance)
			})
		})
	})
}
