//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisStatsSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	cache     *RedisStats
}

func TestRedisStatsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStatsSuite))
}

func (s *RedisStatsSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	client, err := Connect(ctx, url)
	s.Require().NoError(err)
	s.client = client
	s.cache = NewRedisStats(client, time.Minute)
}

func (s *RedisStatsSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisStatsSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

type payload struct {
	Total     int64 `json:"total"`
	CheckedIn int64 `json:"checked_in"`
}

func (s *RedisStatsSuite) TestRoundTrip() {
	ctx := context.Background()

	var got payload
	version, found, err := s.cache.Get(ctx, 1, &got)
	s.Require().NoError(err)
	s.False(found)
	s.Zero(version)

	s.Require().NoError(s.cache.Set(ctx, 1, version, payload{Total: 10, CheckedIn: 4}))

	_, found, err = s.cache.Get(ctx, 1, &got)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(payload{Total: 10, CheckedIn: 4}, got)

	ttl, err := s.client.TTL(ctx, statsKey(1, version)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStatsSuite) TestInvalidate() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, 2, 0, payload{Total: 1}))
	s.Require().NoError(s.cache.Invalidate(ctx, 2))

	var got payload
	version, found, err := s.cache.Get(ctx, 2, &got)
	s.Require().NoError(err)
	s.False(found)
	s.EqualValues(1, version)
}

func (s *RedisStatsSuite) TestSetAfterInvalidateIsNotServed() {
	ctx := context.Background()

	var got payload
	stale, _, err := s.cache.Get(ctx, 3, &got)
	s.Require().NoError(err)

	s.Require().NoError(s.cache.Invalidate(ctx, 3))
	s.Require().NoError(s.cache.Set(ctx, 3, stale, payload{Total: 1}))

	_, found, err := s.cache.Get(ctx, 3, &got)
	s.Require().NoError(err)
	s.False(found)
}
