//go:build integration

package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"commitgood/internal/ratelimit"
	"commitgood/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client, "test")
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAllowUpToLimit() {
	ctx := context.Background()
	for i := range 3 {
		r, err := s.store.Allow(ctx, "caller:0xabc", 3, time.Minute)
		s.Require().NoError(err)
		s.True(r.Allowed)
		s.Equal(2-i, r.Remaining)
	}

	r, err := s.store.Allow(ctx, "caller:0xabc", 3, time.Minute)
	s.Require().NoError(err)
	s.False(r.Allowed)
	s.Positive(r.RetryAfter)

	card, err := s.redis.Client.ZCard(ctx, "test:ratelimit:caller:0xabc").Result()
	s.Require().NoError(err)
	s.Equal(int64(3), card, "denied requests are not recorded")
}

func (s *RedisStoreSuite) TestWindowExpires() {
	ctx := context.Background()
	window := 500 * time.Millisecond

	r, err := s.store.Allow(ctx, "caller:0xdef", 1, window)
	s.Require().NoError(err)
	s.True(r.Allowed)

	r, err = s.store.Allow(ctx, "caller:0xdef", 1, window)
	s.Require().NoError(err)
	s.False(r.Allowed)

	s.Eventually(func() bool {
		r, err := s.store.Allow(ctx, "caller:0xdef", 1, window)
		return err == nil && r.Allowed
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisStoreSuite) TestReplicasShareOneLimit() {
	const (
		replicas = 50
		limit    = 5
	)
	opts, err := redis.ParseURL(s.redis.URL)
	s.Require().NoError(err)

	stores := make([]*ratelimit.RedisStore, replicas)
	for i := range stores {
		client := redis.NewClient(opts)
		s.T().Cleanup(func() { _ = client.Close() })
		stores[i] = ratelimit.NewRedisStore(client, "test")
	}

	var (
		wg       sync.WaitGroup
		admitted atomic.Int64
		start    = make(chan struct{})
	)
	for _, store := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			r, err := store.Allow(context.Background(), "caller:0xfeed", limit, time.Minute)
			s.NoError(err)
			if err == nil && r.Allowed {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int64(limit), admitted.Load())
	card, err := s.redis.Client.ZCard(context.Background(), "test:ratelimit:caller:0xfeed").Result()
	s.Require().NoError(err)
	s.Equal(int64(limit), card)
}
