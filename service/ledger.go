package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// RewardAmounts is the SOL paid per reward type before the single reward cap
var RewardAmounts = map[core.RewardType]decimal.Decimal{
	core.RewardGameCompletion:  decimal.RequireFromString("0.005"),
	core.RewardLevelCompletion: decimal.RequireFromString("0.002"),
	core.RewardDailyBonus:      decimal.RequireFromString("0.01"),
}

// LedgerConfig parameterizes the RewardLedger
type LedgerConfig struct {
	MaxSingleReward decimal.Decimal
	TransferTimeout time.Duration
}

// RewardLedger grants rewards under the daily caps and reports on them
type RewardLedger struct {
	store    ports.LedgerStore
	engine   *EligibilityEngine
	transfer ports.Transfer
	events   ports.EventPublisher
	metrics  ports.Metrics
	locks    *walletLocks
	cfg      LedgerConfig
	logger   zerolog.Logger
}

// NewRewardLedger creates a new reward ledger
func NewRewardLedger(
	store ports.LedgerStore,
	engine *EligibilityEngine,
	transfer ports.Transfer,
	events ports.EventPublisher,
	metrics ports.Metrics,
	cfg LedgerConfig,
	logger zerolog.Logger,
) *RewardLedger {
	return &RewardLedger{
		store:    store,
		engine:   engine,
		transfer: transfer,
		events:   events,
		metrics:  metrics,
		locks:    newWalletLocks(),
		cfg:      cfg,
		logger:   logger.With().Str("component", "ledger").Logger(),
	}
}

// AmountFor returns the payout of a reward type, capped at the single reward maximum.
// Unknown types are paid as game completions.
func (l *RewardLedger) AmountFor(rewardType core.RewardType) decimal.Decimal {
	amount, ok := RewardAmounts[rewardType]
	if !ok {
		amount = RewardAmounts[core.RewardGameCompletion]
	}
	return decimal.Min(amount, l.cfg.MaxSingleReward)
}

// Grant pays one reward if the wallet is eligible. Counter read, decision,
// transfer and record append happen as one step per wallet, so concurrent
// grants can never push the day total past the cap.
func (l *RewardLedger) Grant(ctx context.Context, walletAddress string, demo bool, rewardType core.RewardType, now time.Time) core.GrantResult {
	if !rewardType.Valid() {
		rewardType = core.RewardGameCompletion
	}
	amount := l.AmountFor(rewardType)
	policy := l.engine.PolicyFor(demo)

	if !demo {
		if gate := l.engine.balanceGate(ctx, walletAddress); gate != nil {
			return l.deny(*gate, rewardType)
		}
	}

	unlock := l.locks.Lock(walletAddress)
	defer unlock()

	var remaining decimal.Decimal
	record, err := l.store.Apply(ctx, walletAddress, now, func(counter core.DailyCounter) (*core.RewardRecord, error) {
		decision := policy.Decide(counter, now)
		if !decision.Eligible {
			return nil, &core.IneligibleError{Eligibility: decision}
		}

		total := counter.TotalAmount.Add(amount)
		if total.GreaterThan(policy.DailyLimit) {
			return nil, &core.IneligibleError{Eligibility: policy.limitReached(now)}
		}

		ref, err := l.execute(ctx, walletAddress, amount)
		if err != nil {
			return nil, err
		}

		remaining = policy.DailyLimit.Sub(total)
		return &core.RewardRecord{
			ID:                   uuid.NewString(),
			WalletAddress:        walletAddress,
			Amount:               amount,
			RewardType:           rewardType,
			TransactionReference: ref,
			Status:               core.RewardCompleted,
			DemoMode:             demo,
			CreatedAt:            now,
		}, nil
	})

	var ineligible *core.IneligibleError
	switch {
	case errors.As(err, &ineligible):
		return l.deny(ineligible.Eligibility, rewardType)
	case err != nil:
		l.logger.Error().Err(err).Str("wallet", core.RedactWallet(walletAddress)).Msg("reward grant failed")
		return l.deny(core.Ineligible(core.ReasonUnknown, "Failed to process reward claim", nil, demo), rewardType)
	case record == nil:
		return l.deny(core.Ineligible(core.ReasonUnknown, "Failed to process reward claim", nil, demo), rewardType)
	}

	l.metrics.RewardGranted(rewardType, demo, amount)
	l.logger.Info().
		Str("wallet", core.RedactWallet(walletAddress)).
		Str("amount_sol", amount.String()).
		Str("reward_type", string(rewardType)).
		Bool("demo", demo).
		Msg("reward granted")

	if err := l.events.PublishRewardGranted(ctx, *record); err != nil {
		l.logger.Warn().Err(err).Str("reward_id", record.ID).Msg("failed to publish reward granted event")
	}

	return core.GrantResult{
		Granted:              true,
		Amount:               amount,
		RewardType:           rewardType,
		TransactionReference: record.TransactionReference,
		Eligibility:          core.Eligible(remaining, demo),
	}
}

func (l *RewardLedger) execute(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error) {
	if l.cfg.TransferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.TransferTimeout)
		defer cancel()
	}

	ref, err := l.transfer.Execute(ctx, walletAddress, amount)
	if err != nil {
		return "", fmt.Errorf("transfer failed: %w", errors.Join(core.ErrDependency, err))
	}
	return ref, nil
}

func (l *RewardLedger) deny(eligibility core.Eligibility, rewardType core.RewardType) core.GrantResult {
	l.metrics.RewardDenied(eligibility.Reason, eligibility.DemoMode)
	return core.GrantResult{
		RewardType:  rewardType,
		Amount:      decimal.Zero,
		Eligibility: eligibility,
	}
}

// StatsFor summarises the wallet's rewards today and overall, against the
// daily limit of the session's mode
func (l *RewardLedger) StatsFor(ctx context.Context, walletAddress string, demo bool, now time.Time) (core.UserStats, error) {
	counter, err := l.store.Counter(ctx, walletAddress, now)
	if err != nil {
		return core.UserStats{}, fmt.Errorf("failed to read daily counter: %w", err)
	}

	records, err := l.store.Records(ctx, walletAddress)
	if err != nil {
		return core.UserStats{}, fmt.Errorf("failed to read rewards: %w", err)
	}

	earned := decimal.Zero
	for _, r := range records {
		earned = earned.Add(r.Amount)
	}

	limit := l.engine.PolicyFor(demo).DailyLimit
	return core.UserStats{
		WalletAddress:       walletAddress,
		DailyRewardsClaimed: counter.Count,
		TotalAmountToday:    counter.TotalAmount,
		DailyLimit:          limit,
		RemainingToday:      decimal.Max(decimal.Zero, limit.Sub(counter.TotalAmount)),
		TotalRewardsEarned:  earned,
		TotalRewardsCount:   len(records),
	}, nil
}

// Leaderboard ranks wallets by total completed rewards. A zero limit means
// the default of 10; other values are clamped to [1, 100].
func (l *RewardLedger) Leaderboard(ctx context.Context, limit int) ([]core.LeaderboardEntry, error) {
	limit = clampLeaderboardLimit(limit)

	rows, err := l.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}

	entries := make([]core.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, core.LeaderboardEntry{
			Rank:          i + 1,
			WalletAddress: core.RedactWallet(row.WalletAddress),
			TotalRewards:  row.TotalRewards.Round(6),
			TotalGames:    row.TotalGames,
			LastActivity:  row.LastActivity,
		})
	}
	return entries, nil
}

func clampLeaderboardLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultLeaderboardLimit
	case limit < 1:
		return 1
	case limit > maxLeaderboardLimit:
		return maxLeaderboardLimit
	}
	return limit
}
