package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

var errOverCap = errors.New("over cap")

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase("sqlite::memory:", zerolog.Nop())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func reward(wallet string, amount string, at time.Time) core.RewardRecord {
	return core.RewardRecord{
		ID:                   uuid.NewString(),
		WalletAddress:        wallet,
		Amount:               decimal.RequireFromString(amount),
		RewardType:           core.RewardGameCompletion,
		TransactionReference: "mock_tx_" + uuid.NewString(),
		Status:               core.RewardCompleted,
		CreatedAt:            at,
	}
}

// capped appends amount only while the day total stays within limit.
func capped(record core.RewardRecord, limit decimal.Decimal) ports.GrantFunc {
	return func(counter core.DailyCounter) (*core.RewardRecord, error) {
		if counter.TotalAmount.Add(record.Amount).GreaterThan(limit) {
			return nil, errOverCap
		}
		r := record
		r.ID = uuid.NewString()
		return &r, nil
	}
}

func ledgerStoreContract(t *testing.T, newStore func(t *testing.T, seed ...core.RewardRecord) ports.LedgerStore) {
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("counter sums the day in decimal", func(t *testing.T) {
		var seed []core.RewardRecord
		for i := 0; i < 20; i++ {
			seed = append(seed, reward(walletA, "0.005", day.Add(time.Duration(i)*time.Minute)))
		}
		seed = append(seed, reward(walletA, "0.01", day.AddDate(0, 0, -1)))
		s := newStore(t, seed...)

		c, err := s.Counter(ctx, walletA, day)
		require.NoError(t, err)
		assert.Equal(t, 20, c.Count)
		assert.True(t, c.TotalAmount.Equal(decimal.RequireFromString("0.1")), c.TotalAmount.String())
		require.NotNil(t, c.LastRewardAt)
		assert.True(t, c.LastRewardAt.Equal(day.Add(19*time.Minute)))
		assert.Equal(t, "2026-03-01", c.Day)

		other, err := s.Counter(ctx, walletB, day)
		require.NoError(t, err)
		assert.Zero(t, other.Count)
		assert.True(t, other.TotalAmount.IsZero())
		assert.Nil(t, other.LastRewardAt)
	})

	t.Run("apply error leaves no record", func(t *testing.T) {
		s := newStore(t)
		rec, err := s.Apply(ctx, walletA, day, func(core.DailyCounter) (*core.RewardRecord, error) {
			return nil, errOverCap
		})
		assert.ErrorIs(t, err, errOverCap)
		assert.Nil(t, rec)

		records, err := s.Records(ctx, walletA)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("concurrent applies never exceed the cap", func(t *testing.T) {
		limit := decimal.RequireFromString("0.1")
		var seed []core.RewardRecord
		for i := 0; i < 17; i++ {
			seed = append(seed, reward(walletA, "0.005", day.Add(-time.Duration(i+1)*time.Minute)))
		}
		s := newStore(t, seed...)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			granted   int
			rejected  int
			unexpected []error
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Apply(ctx, walletA, day, capped(reward(walletA, "0.005", day), limit))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					granted++
				case errors.Is(err, errOverCap):
					rejected++
				default:
					unexpected = append(unexpected, err)
				}
			}()
		}
		wg.Wait()

		require.Empty(t, unexpected)
		assert.Equal(t, 3, granted)
		assert.Equal(t, 17, rejected)

		c, err := s.Counter(ctx, walletA, day)
		require.NoError(t, err)
		assert.Equal(t, 20, c.Count)
		assert.True(t, c.TotalAmount.Equal(limit), c.TotalAmount.String())
	})

	t.Run("records are oldest first", func(t *testing.T) {
		s := newStore(t,
			reward(walletA, "0.002", day.Add(2*time.Hour)),
			reward(walletA, "0.005", day),
			reward(walletB, "0.01", day),
		)
		records, err := s.Records(ctx, walletA)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].CreatedAt.Before(records[1].CreatedAt))
		assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("0.005")))
	})

	t.Run("leaderboard groups by wallet", func(t *testing.T) {
		walletC := "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
		s := newStore(t,
			reward(walletA, "0.005", day),
			reward(walletA, "0.005", day.Add(time.Hour)),
			reward(walletB, "0.002", day),
			reward(walletC, "0.01", day.Add(2*time.Hour)),
			reward(walletC, "0.01", day.Add(3*time.Hour)),
		)

		rows, err := s.Leaderboard(ctx, 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, walletC, rows[0].WalletAddress)
		assert.True(t, rows[0].TotalRewards.Equal(decimal.RequireFromString("0.02")), rows[0].TotalRewards.String())
		assert.EqualValues(t, 2, rows[0].TotalGames)
		assert.True(t, rows[0].LastActivity.Equal(day.Add(3*time.Hour)), rows[0].LastActivity.String())
		assert.Equal(t, walletA, rows[1].WalletAddress)
	})
}

func TestMemoryLedgerStore(t *testing.T) {
	ledgerStoreContract(t, func(t *testing.T, seed ...core.RewardRecord) ports.LedgerStore {
		return NewMemoryLedgerStore(seed...)
	})
}

func TestGormLedgerStore(t *testing.T) {
	ledgerStoreContract(t, func(t *testing.T, seed ...core.RewardRecord) ports.LedgerStore {
		db := openSQLite(t)
		for _, r := range seed {
			row := newRewardRow(r)
			require.NoError(t, db.Create(&row).Error)
		}
		return NewGormLedgerStore(db)
	})
}

func TestMemoryLedgerStoreRebuild(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryLedgerStore()

	for i := 0; i < 4; i++ {
		_, err := s.Apply(ctx, walletA, day, capped(reward(walletA, "0.01", day.Add(time.Duration(i)*time.Second)), decimal.NewFromInt(1)))
		require.NoError(t, err)
	}
	before, err := s.Counter(ctx, walletA, day)
	require.NoError(t, err)

	s.Rebuild()

	after, err := s.Counter(ctx, walletA, day)
	require.NoError(t, err)
	assert.Equal(t, before.Count, after.Count)
	assert.True(t, before.TotalAmount.Equal(after.TotalAmount), fmt.Sprintf("%s != %s", before.TotalAmount, after.TotalAmount))
}
