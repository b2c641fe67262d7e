package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardType identifies what a reward was granted for
type RewardType string

const (
	RewardGameCompletion  RewardType = "game_completion"
	RewardLevelCompletion RewardType = "level_completion"
	RewardDailyBonus      RewardType = "daily_bonus"
)

// Valid reports whether t is one of the known reward types
func (t RewardType) Valid() bool {
	switch t {
	case RewardGameCompletion, RewardLevelCompletion, RewardDailyBonus:
		return true
	}
	return false
}

// RewardStatus is the settlement state of a reward record
type RewardStatus string

const (
	RewardCompleted RewardStatus = "completed"
	// Reserved for when on-chain transfer execution is asynchronous.
	RewardPending RewardStatus = "pending"
	RewardFailed  RewardStatus = "failed"
)

// RewardRecord is an immutable entry of the reward log
type RewardRecord struct {
	ID                   string
	WalletAddress        string
	Amount               decimal.Decimal
	RewardType           RewardType
	TransactionReference string
	Status               RewardStatus
	DemoMode             bool
	CreatedAt            time.Time
}

// DailyCounter aggregates the grants of one wallet on one UTC day
type DailyCounter struct {
	WalletAddress string
	Day           string // YYYY-MM-DD, UTC
	Count         int
	TotalAmount   decimal.Decimal
	LastRewardAt  *time.Time
}

// Add folds a record into the counter.
func (c *DailyCounter) Add(r RewardRecord) {
	c.Count++
	c.TotalAmount = c.TotalAmount.Add(r.Amount)
	if c.LastRewardAt == nil || r.CreatedAt.After(*c.LastRewardAt) {
		at := r.CreatedAt
		c.LastRewardAt = &at
	}
}

// GrantResult is the outcome of a reward grant attempt
type GrantResult struct {
	Granted              bool
	Amount               decimal.Decimal
	RewardType           RewardType
	TransactionReference string
	Eligibility          Eligibility
}

// UserStats summarises a wallet's rewards
type UserStats struct {
	WalletAddress       string
	DailyRewardsClaimed int
	TotalAmountToday    decimal.Decimal
	DailyLimit          decimal.Decimal
	RemainingToday      decimal.Decimal
	TotalRewardsEarned  decimal.Decimal
	TotalRewardsCount   int
}

// LeaderboardRow is a per-wallet aggregate of completed rewards
type LeaderboardRow struct {
	WalletAddress string
	TotalRewards  decimal.Decimal
	TotalGames    int64
	LastActivity  time.Time
}

// LeaderboardEntry is a ranked, redacted leaderboard row
type LeaderboardEntry struct {
	Rank          int
	WalletAddress string
	TotalRewards  decimal.Decimal
	TotalGames    int64
	LastActivity  time.Time
}

// BalanceInfo is a snapshot of a wallet's token holdings
type BalanceInfo struct {
	Balance       decimal.Decimal
	USDValue      decimal.Decimal
	TokenPrice    decimal.Decimal
	MeetsMinimum  bool
	AccountExists bool
}

// DayKey returns the UTC calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// StartOfDay returns UTC midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextMidnight returns the UTC midnight following t.
func NextMidnight(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
