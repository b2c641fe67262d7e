package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const unknownEligibilityMessage = "Unable to verify eligibility"

// Policy is the daily cap and minimum spacing applied to one kind of session
type Policy struct {
	DailyLimit  decimal.Decimal
	MinInterval time.Duration
	Demo        bool
}

// Decide applies the policy to the wallet's counter for the day of now.
// A zero MinInterval disables the spacing check.
func (p Policy) Decide(counter core.DailyCounter, now time.Time) core.Eligibility {
	if counter.TotalAmount.GreaterThanOrEqual(p.DailyLimit) {
		return p.limitReached(now)
	}

	if p.MinInterval > 0 && counter.LastRewardAt != nil && now.Sub(*counter.LastRewardAt) < p.MinInterval {
		next := counter.LastRewardAt.Add(p.MinInterval)
		msg := fmt.Sprintf("Must wait %d seconds between rewards", int(p.MinInterval.Seconds()))
		if p.Demo {
			msg += " (demo mode)"
		}
		return core.Ineligible(core.ReasonTooSoon, msg, &next, p.Demo)
	}

	return core.Eligible(p.DailyLimit.Sub(counter.TotalAmount), p.Demo)
}

func (p Policy) limitReached(now time.Time) core.Eligibility {
	next := core.NextMidnight(now)
	msg := "Daily reward limit reached"
	if p.Demo {
		msg = fmt.Sprintf("Demo daily limit reached (%s SOL max for demo mode)", p.DailyLimit)
	}
	return core.Ineligible(core.ReasonDailyLimitReached, msg, &next, p.Demo)
}

// Policies pairs the verified-wallet policy with the demo one
type Policies struct {
	Real Policy
	Demo Policy
}

// For returns the policy that governs a session
func (p Policies) For(demo bool) Policy {
	if demo {
		return p.Demo
	}
	return p.Real
}

// EligibilityConfig parameterizes the EligibilityEngine
type EligibilityConfig struct {
	Policies       Policies
	MinimumUSD     decimal.Decimal
	BalanceTimeout time.Duration
}

// EligibilityEngine decides whether a wallet may receive a reward now
type EligibilityEngine struct {
	ledger   ports.LedgerStore
	balances ports.BalanceOracle
	cfg      EligibilityConfig
	logger   zerolog.Logger
}

// NewEligibilityEngine creates a new eligibility engine
func NewEligibilityEngine(ledger ports.LedgerStore, balances ports.BalanceOracle, cfg EligibilityConfig, logger zerolog.Logger) *EligibilityEngine {
	cfg.Policies.Real.Demo = false
	cfg.Policies.Demo.Demo = true
	return &EligibilityEngine{
		ledger:   ledger,
		balances: balances,
		cfg:      cfg,
		logger:   logger.With().Str("component", "eligibility").Logger(),
	}
}

// PolicyFor returns the policy that governs a session
func (e *EligibilityEngine) PolicyFor(demo bool) Policy {
	return e.cfg.Policies.For(demo)
}

// Evaluate reports whether the wallet may be rewarded at now. It fails
// closed: any oracle or storage error yields ReasonUnknown.
func (e *EligibilityEngine) Evaluate(ctx context.Context, walletAddress string, demo bool, now time.Time) core.Eligibility {
	if !demo {
		if gate := e.balanceGate(ctx, walletAddress); gate != nil {
			return *gate
		}
	}

	counter, err := e.ledger.Counter(ctx, walletAddress, now)
	if err != nil {
		e.logger.Error().Err(err).Str("wallet", core.RedactWallet(walletAddress)).Msg("failed to read daily counter")
		return core.Ineligible(core.ReasonUnknown, unknownEligibilityMessage, nil, demo)
	}

	return e.PolicyFor(demo).Decide(counter, now)
}

// CheckBalance asks the balance oracle once, bounded by the configured timeout
func (e *EligibilityEngine) CheckBalance(ctx context.Context, walletAddress string) (core.BalanceInfo, error) {
	if e.cfg.BalanceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.BalanceTimeout)
		defer cancel()
	}

	info, err := e.balances.Check(ctx, walletAddress)
	if err != nil {
		return core.BalanceInfo{}, fmt.Errorf("balance check failed: %w", errors.Join(core.ErrDependency, err))
	}
	return info, nil
}

// balanceGate returns a refusal when the wallet does not hold the minimum
// token value, or nil when it does
func (e *EligibilityEngine) balanceGate(ctx context.Context, walletAddress string) *core.Eligibility {
	info, err := e.CheckBalance(ctx, walletAddress)
	if err != nil {
		e.logger.Warn().Err(err).Str("wallet", core.RedactWallet(walletAddress)).Msg("balance oracle unavailable")
		denied := core.Ineligible(core.ReasonUnknown, unknownEligibilityMessage, nil, false)
		return &denied
	}
	if !info.MeetsMinimum {
		msg := fmt.Sprintf("Insufficient PURPE balance. Need minimum $%s USD worth of PURPE tokens.", e.cfg.MinimumUSD)
		denied := core.Ineligible(core.ReasonInsufficientBalance, msg, nil, false)
		return &denied
	}
	return nil
}
