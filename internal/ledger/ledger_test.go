package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"commitgood/internal/actions/delivery"
	"commitgood/internal/actions/donation"
	"commitgood/internal/actions/fundraising"
	"commitgood/internal/actions/volunteer"
	"commitgood/internal/rates"
	"commitgood/internal/state"
	"commitgood/internal/state/memory"
	"commitgood/internal/token"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/testutil"
)

// =============================================================================
// Ledger Scenario Suite
// =============================================================================
// Justification: these scenarios run real components against one executor,
// so nested mints, rollbacks and event ordering are exercised end to end.

type LedgerSuite struct {
	suite.Suite
	backend *memory.Backend
	ledger  *Ledger

	owner    common.Address
	deployer common.Address
	user     common.Address
	charity  common.Address
	courier  common.Address
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	s.deployer = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	s.user = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	s.charity = common.HexToAddress("0x00000000000000000000000000000000000000d5")
	s.courier = common.HexToAddress("0x00000000000000000000000000000000000000d6")

	s.backend = memory.New()
	exec, err := state.NewExecutor(context.Background(), s.backend)
	s.Require().NoError(err)

	s.ledger, err = New(exec, Config{
		Owner:    s.owner,
		Deployer: s.deployer,
		InitialRates: map[rates.Category]*big.Int{
			rates.CategoryDelivery:  big.NewInt(5),
			rates.CategoryVolunteer: big.NewInt(7),
		},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Bootstrap(context.Background()))

	ctx := s.ownerCtx()
	for _, u := range []common.Address{s.user, s.courier} {
		_, err = s.ledger.Registry.AuthorizeUser(ctx, u, true)
		s.Require().NoError(err)
	}
	_, err = s.ledger.Registry.AuthorizeCharity(ctx, s.charity, true)
	s.Require().NoError(err)
}

func (s *LedgerSuite) ownerCtx() context.Context {
	return testutil.CallerContext(s.owner)
}

func (s *LedgerSuite) balance(addr common.Address) uint64 {
	b, err := s.ledger.Token.BalanceOf(context.Background(), addr)
	s.Require().NoError(err)
	return b.Uint64()
}

func (s *LedgerSuite) TestDeriveAddressesIsDeterministicAndDistinct() {
	a := DeriveAddresses(s.deployer)
	s.Equal(a, DeriveAddresses(s.deployer))

	seen := map[common.Address]bool{}
	for _, addr := range []common.Address{a.Registry, a.RateOfGood, a.Delivery, a.FundRaising,
		a.InKindDonation, a.Volunteer, a.Donation, a.Catalog, a.Token} {
		s.False(seen[addr])
		seen[addr] = true
	}
}

func (s *LedgerSuite) TestBootstrapIsIdempotent() {
	before, err := s.backend.LastSeq(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.Bootstrap(context.Background()))

	after, err := s.backend.LastSeq(context.Background())
	s.Require().NoError(err)
	s.Equal(before, after)

	entries, err := s.ledger.Catalog.Entries(context.Background())
	s.Require().NoError(err)
	s.Equal(s.ledger.Addresses.Registry, entries.Registry)
}

func (s *LedgerSuite) TestVolunteerScenario() {
	p := volunteer.Participation{User: s.user, UserID: 300, Charity: s.charity, CharityID: 100, CampaignID: 200}

	_, err := s.ledger.Volunteer.CreateVolunteerCampaign(s.ownerCtx(), s.charity, 100, 200)
	s.Require().NoError(err)

	receipt, err := s.ledger.Volunteer.SignUp(testutil.CallerContext(s.user), p)
	s.Require().NoError(err)
	s.Equal([]string{"VolunteerSignUp"}, receipt.Names())

	receipt, err = s.ledger.Volunteer.Verify(s.ownerCtx(), p, uint256.NewInt(3))
	s.Require().NoError(err)
	s.Equal([]string{"VolunteerVerify", "Mint", "Transfer"}, receipt.Names())
	s.Equal(uint64(3), receipt.Logs[0].Args.(volunteer.VolunteerVerify).Time.Uint64())
	s.Equal(uint64(21), s.balance(s.user))

	mint := receipt.Logs[1]
	s.Equal(s.ledger.Addresses.Token, mint.Emitter)
	s.Equal(receipt.Logs[0].Seq+1, mint.Seq)
}

func (s *LedgerSuite) TestDeliveryScenario() {
	receipt, err := s.ledger.Delivery.DeliveryVerify(s.ownerCtx(), delivery.Verification{
		Courier:         s.courier,
		CourierID:       200,
		Recipient:       s.user,
		RecipientID:     100,
		ItemDescription: "item",
		TotalWeight:     uint256.NewInt(1),
	})
	s.Require().NoError(err)
	s.Equal(uint64(5), s.balance(s.courier))
	s.Equal([]string{"EventDeliveryVerify", "Mint", "Transfer"}, receipt.Names())
}

func (s *LedgerSuite) TestFinishedMintingRollsBackActionState() {
	p := volunteer.Participation{User: s.user, UserID: 300, Charity: s.charity, CharityID: 100, CampaignID: 200}
	_, err := s.ledger.Volunteer.CreateVolunteerCampaign(s.ownerCtx(), s.charity, 100, 200)
	s.Require().NoError(err)
	_, err = s.ledger.Volunteer.SignUp(context.Background(), p)
	s.Require().NoError(err)

	agentCtx := testutil.CallerContext(s.ledger.Addresses.Volunteer)
	_, err = s.ledger.Token.FinishMinting(agentCtx)
	s.Require().NoError(err)

	before, err := s.backend.LastSeq(context.Background())
	s.Require().NoError(err)

	_, err = s.ledger.Volunteer.Verify(s.ownerCtx(), p, uint256.NewInt(3))
	s.True(dErrors.HasCode(err, dErrors.CodeMintingFinished))

	signup, err := s.ledger.Volunteer.Signup(context.Background(), s.charity, 200, s.user)
	s.Require().NoError(err)
	s.Equal(volunteer.StatusSignedUp, signup.Status)

	after, err := s.backend.LastSeq(context.Background())
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *LedgerSuite) TestDonationTransferMode() {
	exec, err := state.NewExecutor(context.Background(), memory.New())
	s.Require().NoError(err)
	l, err := New(exec, Config{Owner: s.owner, Deployer: s.deployer, DonationMode: donation.ModeTransfer})
	s.Require().NoError(err)
	s.Require().NoError(l.Bootstrap(context.Background()))

	ctx := s.ownerCtx()
	_, err = l.Registry.AuthorizeUser(ctx, s.user, true)
	s.Require().NoError(err)
	_, err = l.Registry.AuthorizeCharity(ctx, s.charity, true)
	s.Require().NoError(err)

	// Fund the donor through a one-off mint agent.
	_, err = l.Token.SetMintAgent(ctx, s.owner, true)
	s.Require().NoError(err)
	_, err = l.Token.Mint(ctx, s.user, uint256.NewInt(100))
	s.Require().NoError(err)

	d := donation.Donation{User: s.user, UserID: 300, Charity: s.charity, CharityID: 100, Amount: uint256.NewInt(40)}

	_, err = l.Donation.Donate(ctx, d)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientAllowance))

	_, err = l.Token.Approve(testutil.CallerContext(s.user), l.Addresses.Donation, uint256.NewInt(40))
	s.Require().NoError(err)

	receipt, err := l.Donation.Donate(ctx, d)
	s.Require().NoError(err)
	s.Equal([]string{"UserDonation", "Transfer"}, receipt.Names())

	charityBalance, err := l.Token.BalanceOf(context.Background(), s.charity)
	s.Require().NoError(err)
	s.Equal(uint64(40), charityBalance.Uint64())
	transfer := receipt.Logs[1].Args.(token.Transfer)
	s.Equal(s.user, transfer.From)
}

func (s *LedgerSuite) TestFundRaisingScenario() {
	_, err := s.ledger.Rates.SetFundRaisingRoG(s.ownerCtx(), big.NewInt(2))
	s.Require().NoError(err)
	_, err = s.ledger.FundRaising.CreateFundRaiserCampaign(s.ownerCtx(), s.charity, 100, 200, uint256.NewInt(50))
	s.Require().NoError(err)

	receipt, err := s.ledger.FundRaising.RaiseFunds(s.ownerCtx(), fundraising.Contribution{
		Donator:     s.user,
		DonatorID:   300,
		Charity:     s.charity,
		CharityID:   100,
		CampaignID:  200,
		Amount:      uint256.NewInt(60),
		GoalReached: true,
	})
	s.Require().NoError(err)
	s.Equal(uint64(120), s.balance(s.user))
	s.True(receipt.Logs[0].Args.(fundraising.EventFundsDonated).GoalReached)

	c, err := s.ledger.FundRaising.Campaign(context.Background(), s.charity, 200)
	s.Require().NoError(err)
	s.Equal(uint64(60), c.Raised.Uint64())
}

func (s *LedgerSuite) TestSupplyEqualsSumOfBalances() {
	s.TestVolunteerScenario()
	s.TestDeliveryScenario()

	supply, err := s.ledger.Token.TotalSupply(context.Background())
	s.Require().NoError(err)
	s.Equal(supply.Uint64(), s.balance(s.user)+s.balance(s.courier)+s.balance(s.charity))
}
