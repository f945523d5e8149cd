package rediscache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/suite"
)

type ReferenceCacheTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	cache  *ReferenceCache
}

func TestReferenceCacheSuite(t *testing.T) {
	suite.Run(t, new(ReferenceCacheTestSuite))
}

func (s *ReferenceCacheTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())

	var err error
	s.client, err = Connect(s.T().Context(), Options{Addr: s.mr.Addr()})
	s.Require().NoError(err)

	s.cache = NewReferenceCache(s.client, 0)
}

func (s *ReferenceCacheTestSuite) TearDownTest() {
	_ = s.client.Close()
}

func (s *ReferenceCacheTestSuite) TestDefaultTTL() {
	s.Equal(DefaultReferenceTTL, s.cache.ttl)
	s.Equal(time.Minute, NewReferenceCache(s.client, time.Minute).ttl)
}

func (s *ReferenceCacheTestSuite) TestSeenAfterRemember() {
	reference := gofakeit.UUID()

	seen, err := s.cache.Seen(s.T().Context(), reference)
	s.Require().NoError(err)
	s.False(seen)

	s.Require().NoError(s.cache.Remember(s.T().Context(), reference))
	// повторная отметка не ошибка.
	s.Require().NoError(s.cache.Remember(s.T().Context(), reference))

	seen, err = s.cache.Seen(s.T().Context(), reference)
	s.Require().NoError(err)
	s.True(seen)

	s.True(s.mr.Exists(referenceKey(reference)))
	s.Equal(DefaultReferenceTTL, s.mr.TTL(referenceKey(reference)))
}

func (s *ReferenceCacheTestSuite) TestRememberKeepsFirstMark() {
	reference := gofakeit.UUID()
	s.Require().NoError(s.mr.Set(referenceKey(reference), "1"))

	s.Require().NoError(s.cache.Remember(s.T().Context(), reference))

	value, err := s.mr.Get(referenceKey(reference))
	s.Require().NoError(err)
	s.Equal("1", value)
}

func (s *ReferenceCacheTestSuite) TestMarkExpires() {
	reference := gofakeit.UUID()
	cache := NewReferenceCache(s.client, time.Hour)
	s.Require().NoError(cache.Remember(s.T().Context(), reference))

	s.mr.FastForward(time.Hour + time.Second)

	seen, err := cache.Seen(s.T().Context(), reference)
	s.Require().NoError(err)
	s.False(seen)
}

func (s *ReferenceCacheTestSuite) TestServerDown() {
	addr := s.mr.Addr()
	s.mr.Close()

	_, err := s.cache.Seen(s.T().Context(), gofakeit.UUID())
	s.Require().Error(err)
	s.Require().Error(s.cache.Remember(s.T().Context(), gofakeit.UUID()))

	_, connErr := Connect(s.T().Context(), Options{Addr: addr})
	s.Require().Error(connErr)
}

func TestReferenceKey(t *testing.T) {
	if got := referenceKey("ref-123"); got != "chartcredits:payment_reference:ref-123" {
		t.Fatalf("unexpected key %q", got)
	}
}
