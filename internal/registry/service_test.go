package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"commitgood/internal/state"
	"commitgood/internal/state/memory"
	dErrors "commitgood/pkg/domain-errors"
	"commitgood/pkg/requestcontext"
)

type RegistryServiceSuite struct {
	suite.Suite
	service  *Service
	owner    common.Address
	stranger common.Address
	alice    common.Address
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

func (s *RegistryServiceSuite) SetupTest() {
	s.owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	s.stranger = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	s.alice = common.HexToAddress("0x00000000000000000000000000000000000000d4")

	exec, err := state.NewExecutor(context.Background(), memory.New())
	s.Require().NoError(err)
	s.service, err = New(common.HexToAddress("0x00000000000000000000000000000000000000c3"), s.owner, exec)
	s.Require().NoError(err)
}

func (s *RegistryServiceSuite) as(caller common.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}

func (s *RegistryServiceSuite) TestAuthorizeUser() {
	ctx := context.Background()

	s.Run("unknown address is not a user", func() {
		ok, err := s.service.CheckUser(ctx, s.alice)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("owner enables then disables a user", func() {
		receipt, err := s.service.AuthorizeUser(s.as(s.owner), s.alice, true)
		s.Require().NoError(err)
		s.Require().Len(receipt.Logs, 1)
		s.Equal(Authorize{Registrar: s.alice, Role: RoleUser, Enabled: true}, receipt.Logs[0].Args)

		ok, err := s.service.CheckUser(ctx, s.alice)
		s.Require().NoError(err)
		s.True(ok)

		_, err = s.service.AuthorizeUser(s.as(s.owner), s.alice, false)
		s.Require().NoError(err)
		ok, err = s.service.CheckUser(ctx, s.alice)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("user role does not grant charity role", func() {
		_, err := s.service.AuthorizeUser(s.as(s.owner), s.alice, true)
		s.Require().NoError(err)
		ok, err := s.service.CheckCharity(ctx, s.alice)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("zero address fails with invalid address", func() {
		_, err := s.service.AuthorizeUser(s.as(s.owner), common.Address{}, true)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
	})

	s.Run("non-owner fails with unauthorized", func() {
		_, err := s.service.AuthorizeUser(s.as(s.stranger), s.alice, true)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("non-owner with zero address fails with unauthorized first", func() {
		_, err := s.service.AuthorizeUser(s.as(s.stranger), common.Address{}, true)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RegistryServiceSuite) TestAuthorizeCharity() {
	ctx := context.Background()

	s.Run("owner enables a charity", func() {
		receipt, err := s.service.AuthorizeCharity(s.as(s.owner), s.alice, true)
		s.Require().NoError(err)
		s.Equal([]string{"Authorize"}, receipt.Names())
		s.Equal(RoleCharity, receipt.Logs[0].Args.(Authorize).Role)

		ok, err := s.service.CheckCharity(ctx, s.alice)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("check on zero address fails", func() {
		_, err := s.service.CheckCharity(ctx, common.Address{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAddress))
	})
}
