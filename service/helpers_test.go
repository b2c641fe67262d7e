package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/adapters/metrics"
	"github.com/layer-3/leap/adapters/oracle"
	"github.com/layer-3/leap/adapters/store"
	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const (
	walletA = "So11111111111111111111111111111111111111112"
	walletB = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

var errUnavailable = errors.New("unavailable")

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubTransfer struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (t *stubTransfer) Execute(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	return "mock_tx_test", nil
}

type failingBalances struct{}

func (failingBalances) Check(ctx context.Context, walletAddress string) (core.BalanceInfo, error) {
	return core.BalanceInfo{}, errUnavailable
}

type recordingEvents struct {
	mu       sync.Mutex
	err      error
	rewards  []core.RewardRecord
	sessions []core.GameSession
}

func (e *recordingEvents) PublishRewardGranted(ctx context.Context, record core.RewardRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.rewards = append(e.rewards, record)
	return nil
}

func (e *recordingEvents) PublishGameCompleted(ctx context.Context, session core.GameSession) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.sessions = append(e.sessions, session)
	return nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPolicies() Policies {
	return Policies{
		Real: Policy{DailyLimit: d("0.1"), MinInterval: 300 * time.Second},
		Demo: Policy{DailyLimit: d("0.05"), MinInterval: 60 * time.Second},
	}
}

type ledgerFixture struct {
	store    *store.MemoryLedgerStore
	balances *oracle.MockBalanceOracle
	transfer *stubTransfer
	events   *recordingEvents
	engine   *EligibilityEngine
	ledger   *RewardLedger
}

func newLedgerFixture(policies Policies, seed ...core.RewardRecord) *ledgerFixture {
	f := &ledgerFixture{
		store:    store.NewMemoryLedgerStore(seed...),
		balances: oracle.NewMockBalanceOracle(oracle.NewStaticPriceOracle(decimal.NewFromInt(15)), decimal.NewFromInt(15), decimal.NewFromInt(10)),
		transfer: &stubTransfer{},
		events:   &recordingEvents{},
	}
	f.engine = NewEligibilityEngine(f.store, f.balances, EligibilityConfig{
		Policies:       policies,
		MinimumUSD:     decimal.NewFromInt(10),
		BalanceTimeout: time.Second,
	}, zerolog.Nop())
	f.ledger = NewRewardLedger(f.store, f.engine, f.transfer, f.events, metrics.Nop{}, LedgerConfig{
		MaxSingleReward: d("0.01"),
		TransferTimeout: time.Second,
	}, zerolog.Nop())
	return f
}

func (f *ledgerFixture) records(wallet string) []core.RewardRecord {
	records, _ := f.store.Records(context.Background(), wallet)
	return records
}

var _ ports.Clock = (*fakeClock)(nil)
