package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// GormLedgerStore keeps the reward log in a SQL database
type GormLedgerStore struct {
	db *gorm.DB
}

// NewGormLedgerStore creates a ledger store on top of an opened database
func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

var _ ports.LedgerStore = (*GormLedgerStore)(nil)

// Counter derives the day counter from the completed records of that day
func (s *GormLedgerStore) Counter(ctx context.Context, walletAddress string, day time.Time) (core.DailyCounter, error) {
	return s.counter(s.db.WithContext(ctx), walletAddress, day)
}

// Apply runs fn and appends its record inside one transaction.
// On postgres a transaction-scoped advisory lock keyed by the wallet
// serializes grants across service instances.
func (s *GormLedgerStore) Apply(ctx context.Context, walletAddress string, day time.Time, fn ports.GrantFunc) (*core.RewardRecord, error) {
	var record *core.RewardRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", walletAddress).Error; err != nil {
				return dependencyError("failed to lock wallet", err)
			}
		}

		counter, err := s.counter(tx, walletAddress, day)
		if err != nil {
			return err
		}

		record, err = fn(counter)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}

		row := newRewardRow(*record)
		if err := tx.Create(&row).Error; err != nil {
			return dependencyError("failed to append reward", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Records returns the wallet's completed rewards, oldest first
func (s *GormLedgerStore) Records(ctx context.Context, walletAddress string) ([]core.RewardRecord, error) {
	var rows []rewardRow
	err := s.db.WithContext(ctx).
		Where("wallet_address = ? AND status = ?", walletAddress, string(core.RewardCompleted)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dependencyError("failed to load rewards", err)
	}

	records := make([]core.RewardRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

type leaderboardScan struct {
	WalletAddress string
	TotalRewards  decimal.Decimal
	TotalGames    int64
	LastActivity  aggregateTime
}

// Leaderboard groups completed rewards by wallet, highest total first
func (s *GormLedgerStore) Leaderboard(ctx context.Context, limit int) ([]core.LeaderboardRow, error) {
	var scans []leaderboardScan
	err := s.db.WithContext(ctx).
		Model(&rewardRow{}).
		Select("wallet_address, SUM(amount) AS total_rewards, COUNT(*) AS total_games, MAX(created_at) AS last_activity").
		Where("status = ?", string(core.RewardCompleted)).
		Group("wallet_address").
		Order("total_rewards DESC, wallet_address ASC").
		Limit(limit).
		Scan(&scans).Error
	if err != nil {
		return nil, dependencyError("failed to aggregate leaderboard", err)
	}

	rows := make([]core.LeaderboardRow, 0, len(scans))
	for _, scan := range scans {
		rows = append(rows, core.LeaderboardRow{
			WalletAddress: scan.WalletAddress,
			TotalRewards:  scan.TotalRewards,
			TotalGames:    scan.TotalGames,
			LastActivity:  scan.LastActivity.Time,
		})
	}
	return rows, nil
}

// counter sums in decimal rather than SQL so that sqlite's float SUM cannot drift.
// It loads every row of the day; the daily cap bounds that to a few dozen rows.
func (s *GormLedgerStore) counter(db *gorm.DB, walletAddress string, day time.Time) (core.DailyCounter, error) {
	counter := core.DailyCounter{WalletAddress: walletAddress, Day: core.DayKey(day)}

	var rows []rewardRow
	err := db.
		Where("wallet_address = ? AND day = ? AND status = ?", walletAddress, counter.Day, string(core.RewardCompleted)).
		Find(&rows).Error
	if err != nil {
		return core.DailyCounter{}, dependencyError("failed to load daily counter", err)
	}

	for _, row := range rows {
		counter.Add(row.record())
	}
	return counter, nil
}

func dependencyError(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, errors.Join(core.ErrDependency, err))
}
