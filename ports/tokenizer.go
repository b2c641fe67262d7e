package ports

import (
	"time"

	"github.com/layer-3/leap/core"
)

// Tokenizer mints and validates stateless session tokens
type Tokenizer interface {
	Mint(walletAddress string, demo bool, now time.Time) (string, core.Claims, error)
	Validate(token string, now time.Time) (core.Claims, error)
}
