//go:build integration

package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	audit "commitgood/pkg/platform/audit"
	redispub "commitgood/pkg/platform/audit/publishers/redis"
	"commitgood/pkg/testutil/containers"
)

type pinged struct {
	N uint64 `json:"n"`
}

func (pinged) EventName() string { return "Pinged" }
func (pinged) Signature() string { return "Pinged(uint256)" }

type RedisPublisherSuite struct {
	suite.Suite
	redis     *containers.RedisContainer
	publisher *redispub.Publisher
}

func TestRedisPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisPublisherSuite))
}

func (s *RedisPublisherSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.publisher = redispub.New(s.redis.Client, "test")
}

func (s *RedisPublisherSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisPublisherSuite) logs(n int) []audit.Log {
	emitter := common.HexToAddress("0x00000000000000000000000000000000000000e1")
	out := make([]audit.Log, n)
	for i := range out {
		out[i] = audit.NewLog(emitter, pinged{N: uint64(i + 1)})
		out[i].Seq = uint64(i + 1)
		out[i].Index = i
		out[i].Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return out
}

func (s *RedisPublisherSuite) TestChannelNames() {
	s.Equal("test:events", s.publisher.AllChannel())
	s.Equal("test:events:Pinged", s.publisher.EventChannel("Pinged"))
	s.Equal("commitgood:events", redispub.New(s.redis.Client, "").AllChannel())
}

func (s *RedisPublisherSuite) TestDeliverPublishesInOrder() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := s.redis.Client.Subscribe(ctx, s.publisher.AllChannel(), s.publisher.EventChannel("Pinged"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.publisher.Deliver(ctx, s.logs(2)))

	got := map[string][]uint64{}
	for range 4 {
		msg, err := sub.ReceiveMessage(ctx)
		s.Require().NoError(err)

		var env struct {
			Seq   uint64 `json:"seq"`
			Event string `json:"event"`
			Args  pinged `json:"args"`
		}
		s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &env))
		s.Equal("Pinged", env.Event)
		s.Equal(env.Seq, env.Args.N)
		got[msg.Channel] = append(got[msg.Channel], env.Seq)
	}
	s.Equal([]uint64{1, 2}, got["test:events"])
	s.Equal([]uint64{1, 2}, got["test:events:Pinged"])
}

func (s *RedisPublisherSuite) TestDeliverEmptyBatch() {
	s.NoError(s.publisher.Deliver(context.Background(), nil))
}
