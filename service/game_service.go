package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// GameSessionTracker runs game sessions and pays for completed ones
type GameSessionTracker struct {
	sessions ports.GameSessionStore
	engine   *EligibilityEngine
	ledger   *RewardLedger
	events   ports.EventPublisher
	logger   zerolog.Logger
}

// NewGameSessionTracker creates a new game session tracker
func NewGameSessionTracker(
	sessions ports.GameSessionStore,
	engine *EligibilityEngine,
	ledger *RewardLedger,
	events ports.EventPublisher,
	logger zerolog.Logger,
) *GameSessionTracker {
	return &GameSessionTracker{
		sessions: sessions,
		engine:   engine,
		ledger:   ledger,
		events:   events,
		logger:   logger.With().Str("component", "games").Logger(),
	}
}

// Start opens a new session. The returned eligibility is informational.
func (t *GameSessionTracker) Start(ctx context.Context, walletAddress string, demo bool, now time.Time) (core.GameSession, core.Eligibility, error) {
	session := core.GameSession{
		ID:            uuid.NewString(),
		WalletAddress: walletAddress,
		StartTime:     now,
		Status:        core.GameActive,
		CurrentLevel:  core.StartingLevel,
		Lives:         core.StartingLives,
	}

	if err := t.sessions.Create(ctx, session); err != nil {
		return core.GameSession{}, core.Eligibility{}, fmt.Errorf("failed to start game session: %w", err)
	}

	return session, t.engine.Evaluate(ctx, walletAddress, demo, now), nil
}

// Complete closes the wallet's active session and, when at least one level
// was completed, grants a game completion reward. A session can be
// completed, and therefore rewarded, only once.
func (t *GameSessionTracker) Complete(ctx context.Context, sessionID, walletAddress string, demo bool, score, levels int, now time.Time) (core.CompletionResult, error) {
	if score < 0 || levels < 0 {
		return core.CompletionResult{}, core.ErrInvalidGameResult
	}

	session, err := t.sessions.Complete(ctx, sessionID, walletAddress, score, levels, now)
	if err != nil {
		return core.CompletionResult{}, fmt.Errorf("failed to complete game session: %w", err)
	}

	if err := t.events.PublishGameCompleted(ctx, session); err != nil {
		t.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to publish game completed event")
	}

	result := core.CompletionResult{
		SessionID:       session.ID,
		FinalScore:      session.Score,
		LevelsCompleted: session.LevelsCompleted,
		RewardAmount:    decimal.Zero,
	}

	if levels == 0 {
		result.RewardReason = "No levels completed"
		result.Eligibility = t.engine.Evaluate(ctx, walletAddress, demo, now)
		return result, nil
	}

	grant := t.ledger.Grant(ctx, walletAddress, demo, core.RewardGameCompletion, now)
	result.RewardAwarded = grant.Granted
	result.Eligibility = grant.Eligibility
	if grant.Granted {
		result.RewardAmount = grant.Amount
		result.TransactionReference = grant.TransactionReference
	} else {
		result.RewardReason = grant.Eligibility.Message
	}

	return result, nil
}
