package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with session-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	WalletAddress string           `json:"wallet_address"`
	DemoMode      bool             `json:"demo_mode"`
	VerifiedAt    *jwt.NumericDate `json:"verified_at,omitempty"`
}
