package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// expiredGrace keeps a challenge readable after it expires so Consume can
// report it as expired instead of missing.
const expiredGrace = time.Minute

// RedisChallengeStore is a Redis implementation of the ChallengeStore interface
type RedisChallengeStore struct {
	client redis.UniversalClient
	prefix string
}

type redisChallenge struct {
	Key           string    `json:"key"`
	WalletAddress string    `json:"wallet_address"`
	Nonce         string    `json:"nonce"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Message       string    `json:"message"`
}

// NewRedisChallengeStore creates a new Redis challenge store
func NewRedisChallengeStore(client redis.UniversalClient) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "leap:challenge:",
	}
}

// Put stores the challenge with a TTL of its lifetime plus expiredGrace
func (s *RedisChallengeStore) Put(ctx context.Context, challenge core.Challenge) error {
	payload, err := json.Marshal(redisChallenge(challenge))
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	ttl := challenge.ExpiresAt.Sub(challenge.IssuedAt)
	if ttl <= 0 {
		return fmt.Errorf("challenge has no lifetime: %w", core.ErrChallengeExpired)
	}

	if err := s.client.Set(ctx, s.prefix+challenge.Key, payload, ttl+expiredGrace).Err(); err != nil {
		return dependencyError("failed to store challenge", err)
	}

	return nil
}

// Consume reads and deletes the challenge in one GETDEL round trip
func (s *RedisChallengeStore) Consume(ctx context.Context, key, walletAddress string, now time.Time) (core.Challenge, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Challenge{}, core.ErrChallengeNotFound
	}
	if err != nil {
		return core.Challenge{}, dependencyError("failed to consume challenge", err)
	}

	var stored redisChallenge
	if err := json.Unmarshal(payload, &stored); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	return checkChallenge(core.Challenge(stored), walletAddress, now)
}
