package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

type counterKey struct {
	wallet string
	day    string
}

// MemoryLedgerStore is an in-memory reward log with cached day counters
type MemoryLedgerStore struct {
	records  []core.RewardRecord
	counters map[counterKey]core.DailyCounter
	mu       sync.Mutex
}

// NewMemoryLedgerStore creates a ledger seeded with records
func NewMemoryLedgerStore(records ...core.RewardRecord) *MemoryLedgerStore {
	s := &MemoryLedgerStore{
		records: slices.Clone(records),
	}
	s.Rebuild()
	return s
}

var _ ports.LedgerStore = (*MemoryLedgerStore)(nil)

// Rebuild recomputes every day counter from the reward log
func (s *MemoryLedgerStore) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = make(map[counterKey]core.DailyCounter)
	for _, r := range s.records {
		s.fold(r)
	}
}

// Counter returns the cached counter of the wallet for that day
func (s *MemoryLedgerStore) Counter(ctx context.Context, walletAddress string, day time.Time) (core.DailyCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counter(walletAddress, day), nil
}

// Apply runs fn and appends its record under the store mutex
func (s *MemoryLedgerStore) Apply(ctx context.Context, walletAddress string, day time.Time, fn ports.GrantFunc) (*core.RewardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := fn(s.counter(walletAddress, day))
	if err != nil || record == nil {
		return nil, err
	}

	s.records = append(s.records, *record)
	s.fold(*record)
	return record, nil
}

// Records returns the wallet's completed rewards, oldest first
func (s *MemoryLedgerStore) Records(ctx context.Context, walletAddress string) ([]core.RewardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.RewardRecord
	for _, r := range s.records {
		if r.WalletAddress == walletAddress && r.Status == core.RewardCompleted {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b core.RewardRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// Leaderboard groups completed rewards by wallet, highest total first
func (s *MemoryLedgerStore) Leaderboard(ctx context.Context, limit int) ([]core.LeaderboardRow, error) {
	s.mu.Lock()
	byWallet := make(map[string]*core.LeaderboardRow)
	for _, r := range s.records {
		if r.Status != core.RewardCompleted {
			continue
		}
		row, ok := byWallet[r.WalletAddress]
		if !ok {
			row = &core.LeaderboardRow{WalletAddress: r.WalletAddress}
			byWallet[r.WalletAddress] = row
		}
		row.TotalRewards = row.TotalRewards.Add(r.Amount)
		row.TotalGames++
		if r.CreatedAt.After(row.LastActivity) {
			row.LastActivity = r.CreatedAt
		}
	}
	s.mu.Unlock()

	rows := make([]core.LeaderboardRow, 0, len(byWallet))
	for _, row := range byWallet {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b core.LeaderboardRow) int {
		if c := b.TotalRewards.Cmp(a.TotalRewards); c != 0 {
			return c
		}
		return strings.Compare(a.WalletAddress, b.WalletAddress)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemoryLedgerStore) counter(walletAddress string, day time.Time) core.DailyCounter {
	key := counterKey{wallet: walletAddress, day: core.DayKey(day)}
	if c, ok := s.counters[key]; ok {
		return c
	}
	return core.DailyCounter{WalletAddress: walletAddress, Day: key.day}
}

func (s *MemoryLedgerStore) fold(r core.RewardRecord) {
	if r.Status != core.RewardCompleted {
		return
	}
	c := s.counter(r.WalletAddress, r.CreatedAt)
	c.Add(r)
	s.counters[counterKey{wallet: r.WalletAddress, day: c.Day}] = c
}
