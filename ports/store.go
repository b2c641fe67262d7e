package ports

import (
	"context"
	"time"

	"github.com/layer-3/leap/core"
)

// ChallengeStore holds issued challenges until they are consumed or expire
type ChallengeStore interface {
	Put(ctx context.Context, challenge core.Challenge) error
	// Consume atomically removes the challenge under key and returns it.
	// The entry is gone afterwards whatever the outcome.
	Consume(ctx context.Context, key, walletAddress string, now time.Time) (core.Challenge, error)
}

// GrantFunc decides, from the counter of the grant's day, which record to
// append. Returning an error aborts the grant without side effects.
type GrantFunc func(counter core.DailyCounter) (*core.RewardRecord, error)

// LedgerStore is the append-only reward log and its per-day aggregates
type LedgerStore interface {
	// Counter returns the wallet's counter for the UTC day containing day.
	Counter(ctx context.Context, walletAddress string, day time.Time) (core.DailyCounter, error)

	// Apply reads the counter, runs fn and appends its record as one
	// indivisible operation with respect to other Apply calls for the wallet.
	Apply(ctx context.Context, walletAddress string, day time.Time, fn GrantFunc) (*core.RewardRecord, error)

	// Records returns the wallet's completed rewards, oldest first.
	Records(ctx context.Context, walletAddress string) ([]core.RewardRecord, error)

	// Leaderboard aggregates completed rewards per wallet, highest total first.
	Leaderboard(ctx context.Context, limit int) ([]core.LeaderboardRow, error)
}

// GameSessionStore persists game sessions
type GameSessionStore interface {
	Create(ctx context.Context, session core.GameSession) error
	Get(ctx context.Context, id string) (core.GameSession, error)
	// Complete transitions an active session owned by walletAddress.
	Complete(ctx context.Context, id, walletAddress string, score, levels int, endedAt time.Time) (core.GameSession, error)
}
