package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

func newRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisChallengeStore(t *testing.T) {
	challengeStoreContract(t, func(t *testing.T) ports.ChallengeStore {
		return NewRedisChallengeStore(newRedisClient(t, miniredis.RunT(t)))
	})
}

func TestRedisChallengeStoreSetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisChallengeStore(newRedisClient(t, mr))
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(context.Background(), newChallenge("ttl", walletA, issued)))
	assert.Equal(t, 5*time.Minute+expiredGrace, mr.TTL("leap:challenge:ttl"))

	mr.FastForward(expiredGrace + 5*time.Minute + time.Second)
	_, err := s.Consume(context.Background(), "ttl", walletA, issued)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestRedisChallengeStoreReportsExpired(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisChallengeStore(newRedisClient(t, mr))
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	challenge := newChallenge("late", walletA, issued)

	require.NoError(t, s.Put(ctx, challenge))
	mr.FastForward(5*time.Minute + time.Second)

	_, err := s.Consume(ctx, "late", walletA, challenge.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, core.ErrChallengeExpired)

	// consumed even though expired
	_, err = s.Consume(ctx, "late", walletA, challenge.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestRedisChallengeStoreSingleUseAcrossClients(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	first := NewRedisChallengeStore(newRedisClient(t, mr))
	second := NewRedisChallengeStore(newRedisClient(t, mr))
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, first.Put(ctx, newChallenge("shared", walletA, issued)))

	_, err := second.Consume(ctx, "shared", walletA, issued)
	require.NoError(t, err)

	_, err = first.Consume(ctx, "shared", walletA, issued)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestRedisChallengeStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisChallengeStore(newRedisClient(t, mr))
	mr.Close()

	_, err := s.Consume(context.Background(), "k", walletA, time.Now())
	assert.ErrorIs(t, err, core.ErrDependency)
}
