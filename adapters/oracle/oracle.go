package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// StaticPriceOracle quotes a fixed token price
type StaticPriceOracle struct {
	price decimal.Decimal
}

// NewStaticPriceOracle creates a price oracle that always answers price
func NewStaticPriceOracle(price decimal.Decimal) ports.PriceOracle {
	return StaticPriceOracle{price: price}
}

// Price returns the configured price
func (o StaticPriceOracle) Price(ctx context.Context) (decimal.Decimal, error) {
	return o.price, nil
}

// MockBalanceOracle reports a configured token balance for every wallet,
// valued through a PriceOracle and compared with the USD minimum.
type MockBalanceOracle struct {
	prices     ports.PriceOracle
	balance    decimal.Decimal
	minimumUSD decimal.Decimal

	overrides map[string]decimal.Decimal
	mu        sync.RWMutex
}

// NewMockBalanceOracle creates a balance oracle holding balance tokens per wallet
func NewMockBalanceOracle(prices ports.PriceOracle, balance, minimumUSD decimal.Decimal) *MockBalanceOracle {
	return &MockBalanceOracle{
		prices:     prices,
		balance:    balance,
		minimumUSD: minimumUSD,
		overrides:  make(map[string]decimal.Decimal),
	}
}

var _ ports.BalanceOracle = (*MockBalanceOracle)(nil)

// SetBalance overrides the balance reported for one wallet
func (o *MockBalanceOracle) SetBalance(walletAddress string, balance decimal.Decimal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overrides[walletAddress] = balance
}

// Check values the wallet's balance at the current price
func (o *MockBalanceOracle) Check(ctx context.Context, walletAddress string) (core.BalanceInfo, error) {
	price, err := o.prices.Price(ctx)
	if err != nil {
		return core.BalanceInfo{}, fmt.Errorf("failed to get token price: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.BalanceInfo{}, err
	}

	o.mu.RLock()
	balance, ok := o.overrides[walletAddress]
	o.mu.RUnlock()
	if !ok {
		balance = o.balance
	}

	usd := balance.Mul(price)
	return core.BalanceInfo{
		Balance:       balance,
		USDValue:      usd,
		TokenPrice:    price,
		MeetsMinimum:  usd.GreaterThanOrEqual(o.minimumUSD),
		AccountExists: true,
	}, nil
}
