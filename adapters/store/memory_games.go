package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// MemoryGameSessionStore is an in-memory implementation of the GameSessionStore interface
type MemoryGameSessionStore struct {
	sessions map[string]core.GameSession
	mu       sync.Mutex
}

// NewMemoryGameSessionStore creates a new in-memory game session store
func NewMemoryGameSessionStore() ports.GameSessionStore {
	return &MemoryGameSessionStore{
		sessions: make(map[string]core.GameSession),
	}
}

// Create stores a new session
func (s *MemoryGameSessionStore) Create(ctx context.Context, session core.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

// Get returns a session by id
func (s *MemoryGameSessionStore) Get(ctx context.Context, id string) (core.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return core.GameSession{}, core.ErrSessionNotFound
	}
	return session, nil
}

// Complete closes an active session owned by walletAddress
func (s *MemoryGameSessionStore) Complete(ctx context.Context, id, walletAddress string, score, levels int, endedAt time.Time) (core.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.WalletAddress != walletAddress {
		return core.GameSession{}, core.ErrSessionNotFound
	}
	if session.Status == core.GameCompleted {
		return core.GameSession{}, core.ErrSessionCompleted
	}

	end := endedAt.UTC()
	session.EndTime = &end
	session.Status = core.GameCompleted
	session.Score = score
	session.LevelsCompleted = levels
	s.sessions[id] = session

	return session, nil
}
