package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/leap/core"
)

func priorGrant(wallet, amount string, at time.Time) core.RewardRecord {
	return core.RewardRecord{
		ID:                   uuid.NewString(),
		WalletAddress:        wallet,
		Amount:               d(amount),
		RewardType:           core.RewardGameCompletion,
		TransactionReference: "mock_tx_prior",
		Status:               core.RewardCompleted,
		CreatedAt:            at,
	}
}

func TestGrant(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies())

	res := f.ledger.Grant(ctx, walletA, false, core.RewardGameCompletion, now)
	require.True(t, res.Granted, res.Eligibility.Message)
	assert.True(t, res.Amount.Equal(d("0.005")))
	assert.Equal(t, "mock_tx_test", res.TransactionReference)
	assert.True(t, res.Eligibility.Remaining.Equal(d("0.095")))

	records := f.records(walletA)
	require.Len(t, records, 1)
	assert.Equal(t, core.RewardCompleted, records[0].Status)
	assert.False(t, records[0].DemoMode)

	require.Len(t, f.events.rewards, 1)
	assert.Equal(t, records[0].ID, f.events.rewards[0].ID)
}

func TestGrantAmounts(t *testing.T) {
	f := newLedgerFixture(testPolicies())

	assert.True(t, f.ledger.AmountFor(core.RewardGameCompletion).Equal(d("0.005")))
	assert.True(t, f.ledger.AmountFor(core.RewardLevelCompletion).Equal(d("0.002")))
	assert.True(t, f.ledger.AmountFor(core.RewardDailyBonus).Equal(d("0.01")))
	assert.True(t, f.ledger.AmountFor("jackpot").Equal(d("0.005")))

	f.ledger.cfg.MaxSingleReward = d("0.003")
	assert.True(t, f.ledger.AmountFor(core.RewardDailyBonus).Equal(d("0.003")))
}

func TestGrantUnknownTypeRecordsGameCompletion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies())

	res := f.ledger.Grant(context.Background(), walletA, false, "jackpot", now)
	require.True(t, res.Granted)
	assert.Equal(t, core.RewardGameCompletion, res.RewardType)

	records := f.records(walletA)
	require.Len(t, records, 1)
	assert.Equal(t, core.RewardGameCompletion, records[0].RewardType)
}

func TestGrantTooSoon(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies())

	require.True(t, f.ledger.Grant(ctx, walletA, false, core.RewardGameCompletion, now).Granted)

	res := f.ledger.Grant(ctx, walletA, false, core.RewardGameCompletion, now.Add(10*time.Second))
	assert.False(t, res.Granted)
	assert.Equal(t, core.ReasonTooSoon, res.Eligibility.Reason)
	require.NotNil(t, res.Eligibility.NextEligible)
	assert.True(t, res.Eligibility.NextEligible.Equal(now.Add(300*time.Second)))
	assert.Len(t, f.records(walletA), 1)

	assert.True(t, f.ledger.Grant(ctx, walletA, false, core.RewardGameCompletion, now.Add(300*time.Second)).Granted)
}

func TestGrantDemoCap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policies := testPolicies()
	policies.Demo.MinInterval = 0
	f := newLedgerFixture(policies)
	demoID := "demo_1772366400_0a1b2c3d"

	for i := 0; i < 10; i++ {
		res := f.ledger.Grant(ctx, demoID, true, core.RewardGameCompletion, now.Add(time.Duration(i)*time.Second))
		require.True(t, res.Granted, "grant %d: %s", i, res.Eligibility.Message)
		assert.True(t, res.Eligibility.DemoMode)
	}

	res := f.ledger.Grant(ctx, demoID, true, core.RewardGameCompletion, now.Add(time.Minute))
	assert.False(t, res.Granted)
	assert.Equal(t, core.ReasonDailyLimitReached, res.Eligibility.Reason)
	require.NotNil(t, res.Eligibility.NextEligible)
	assert.True(t, res.Eligibility.NextEligible.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))

	for _, r := range f.records(demoID) {
		assert.True(t, r.DemoMode)
	}

	// the day rolls over at UTC midnight
	assert.True(t, f.ledger.Grant(ctx, demoID, true, core.RewardGameCompletion, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)).Granted)
}

func TestGrantRejectsAmountOverCap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var seed []core.RewardRecord
	for i := 0; i < 19; i++ {
		seed = append(seed, priorGrant(walletA, "0.005", now.Add(-time.Duration(i+1)*time.Hour/2)))
	}
	f := newLedgerFixture(testPolicies(), seed...)

	res := f.ledger.Grant(ctx, walletA, false, core.RewardDailyBonus, now)
	assert.False(t, res.Granted)
	assert.Equal(t, core.ReasonDailyLimitReached, res.Eligibility.Reason)
	assert.Zero(t, f.transfer.calls)

	res = f.ledger.Grant(ctx, walletA, false, core.RewardGameCompletion, now)
	require.True(t, res.Granted)
	assert.True(t, res.Eligibility.Remaining.IsZero())

	c, err := f.store.Counter(ctx, walletA, now)
	require.NoError(t, err)
	assert.True(t, c.TotalAmount.Equal(d("0.1")), c.TotalAmount.String())
}

func TestGrantInsufficientBalance(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies())
	f.balances.SetBalance(walletA, d("0.1"))

	res := f.ledger.Grant(context.Background(), walletA, false, core.RewardGameCompletion, now)
	assert.False(t, res.Granted)
	assert.Equal(t, core.ReasonInsufficientBalance, res.Eligibility.Reason)
	assert.Empty(t, f.records(walletA))
	assert.Zero(t, f.transfer.calls)
}

func TestGrantTransferFailureHasNoSideEffects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies())
	f.transfer.err = errUnavailable

	res := f.ledger.Grant(context.Background(), walletA, false, core.RewardGameCompletion, now)
	assert.False(t, res.Granted)
	assert.Equal(t, core.ReasonUnknown, res.Eligibility.Reason)
	assert.Empty(t, f.records(walletA))
	assert.Empty(t, f.events.rewards)
}

func TestGrantSurvivesPublishFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies())
	f.events.err = errUnavailable

	res := f.ledger.Grant(context.Background(), walletA, false, core.RewardGameCompletion, now)
	assert.True(t, res.Granted)
	assert.Len(t, f.records(walletA), 1)
}

func TestGrantConcurrentNeverExceedsCap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policies := testPolicies()
	policies.Real.MinInterval = 0

	var seed []core.RewardRecord
	for i := 0; i < 17; i++ {
		seed = append(seed, priorGrant(walletA, "0.005", now.Add(-time.Duration(i+1)*time.Minute)))
	}
	f := newLedgerFixture(policies, seed...)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		reasons = map[core.Reason]int{}
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.ledger.Grant(ctx, walletA, false, core.RewardGameCompletion, now)
			mu.Lock()
			defer mu.Unlock()
			if res.Granted {
				granted++
			} else {
				reasons[res.Eligibility.Reason]++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, granted)
	assert.Equal(t, map[core.Reason]int{core.ReasonDailyLimitReached: 17}, reasons)

	c, err := f.store.Counter(ctx, walletA, now)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Count)
	assert.True(t, c.TotalAmount.Equal(d("0.1")), c.TotalAmount.String())
}

func TestStatsFor(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies(),
		priorGrant(walletA, "0.01", now.AddDate(0, 0, -1)),
		priorGrant(walletA, "0.005", now.Add(-time.Hour)),
		priorGrant(walletA, "0.002", now.Add(-10*time.Minute)),
	)

	stats, err := f.ledger.StatsFor(ctx, walletA, false, now)
	require.NoError(t, err)
	assert.Equal(t, walletA, stats.WalletAddress)
	assert.Equal(t, 2, stats.DailyRewardsClaimed)
	assert.True(t, stats.TotalAmountToday.Equal(d("0.007")))
	assert.True(t, stats.DailyLimit.Equal(d("0.1")))
	assert.True(t, stats.RemainingToday.Equal(d("0.093")))
	assert.True(t, stats.TotalRewardsEarned.Equal(d("0.017")))
	assert.Equal(t, 3, stats.TotalRewardsCount)

	demo, err := f.ledger.StatsFor(ctx, walletA, true, now)
	require.NoError(t, err)
	assert.True(t, demo.DailyLimit.Equal(d("0.05")))
	assert.True(t, demo.RemainingToday.Equal(d("0.043")))
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(testPolicies(),
		priorGrant(walletA, "0.005", now),
		priorGrant(walletB, "0.01", now),
		priorGrant(walletB, "0.0000001", now.Add(time.Minute)),
	)

	entries, err := f.ledger.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "9WzDXwBb...AWWM", entries[0].WalletAddress)
	assert.True(t, entries[0].TotalRewards.Equal(d("0.01")), entries[0].TotalRewards.String())
	assert.EqualValues(t, 2, entries[0].TotalGames)
	assert.True(t, entries[0].LastActivity.Equal(now.Add(time.Minute)))

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "So111111...1112", entries[1].WalletAddress)

	entries, err = f.ledger.Leaderboard(ctx, -5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClampLeaderboardLimit(t *testing.T) {
	assert.Equal(t, 10, clampLeaderboardLimit(0))
	assert.Equal(t, 1, clampLeaderboardLimit(-3))
	assert.Equal(t, 25, clampLeaderboardLimit(25))
	assert.Equal(t, 100, clampLeaderboardLimit(1000))
}
