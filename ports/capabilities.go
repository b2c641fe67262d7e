package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
)

// SignatureVerifier checks that signature was produced by the wallet's key
// over the exact message bytes
type SignatureVerifier interface {
	Verify(message string, signature []byte, walletAddress string) (bool, error)
}

// PriceOracle quotes the reward token in USD
type PriceOracle interface {
	Price(ctx context.Context) (decimal.Decimal, error)
}

// BalanceOracle reports a wallet's token holdings
type BalanceOracle interface {
	Check(ctx context.Context, walletAddress string) (core.BalanceInfo, error)
}

// Transfer executes a payout and returns its transaction reference
type Transfer interface {
	Execute(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error)
}

// Clock is the source of the current time
type Clock interface {
	Now() time.Time
}

// Metrics records business counters
type Metrics interface {
	ChallengeIssued()
	LoginAttempt(result string)
	RewardGranted(rewardType core.RewardType, demo bool, amount decimal.Decimal)
	RewardDenied(reason core.Reason, demo bool)
}
