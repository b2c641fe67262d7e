package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// MemoryChallengeStore is an in-memory implementation of the ChallengeStore interface
type MemoryChallengeStore struct {
	challenges map[string]core.Challenge
	mu         sync.Mutex
}

// NewMemoryChallengeStore creates a new in-memory challenge store
func NewMemoryChallengeStore() ports.ChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]core.Challenge),
	}
}

// Put stores a challenge and drops every challenge that expired before it was issued
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(challenge.IssuedAt)
	s.challenges[challenge.Key] = challenge

	return nil
}

// Consume removes the challenge under key and validates it against wallet and now
func (s *MemoryChallengeStore) Consume(ctx context.Context, key, walletAddress string, now time.Time) (core.Challenge, error) {
	s.mu.Lock()
	challenge, exists := s.challenges[key]
	delete(s.challenges, key)
	s.mu.Unlock()

	if !exists {
		return core.Challenge{}, core.ErrChallengeNotFound
	}

	return checkChallenge(challenge, walletAddress, now)
}

// Len returns the number of stored challenges
func (s *MemoryChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.challenges)
}

func (s *MemoryChallengeStore) sweep(now time.Time) {
	for key, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, key)
		}
	}
}

func checkChallenge(challenge core.Challenge, walletAddress string, now time.Time) (core.Challenge, error) {
	if challenge.Expired(now) {
		return core.Challenge{}, core.ErrChallengeExpired
	}
	if challenge.WalletAddress != walletAddress {
		return core.Challenge{}, core.ErrWalletMismatch
	}
	return challenge, nil
}
