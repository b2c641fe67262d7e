package transfer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/ports"
)

// MockTransfer pretends to pay out and returns a synthetic transaction reference
type MockTransfer struct {
	clock ports.Clock
}

// NewMockTransfer creates a transfer that never touches the chain
func NewMockTransfer(clock ports.Clock) ports.Transfer {
	return &MockTransfer{clock: clock}
}

// Execute returns a reference of the form mock_tx_<unix>_<16 hex>
func (t *MockTransfer) Execute(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate transaction reference: %w", err)
	}

	return fmt.Sprintf("mock_tx_%d_%s", t.clock.Now().Unix(), hex.EncodeToString(suffix)), nil
}
