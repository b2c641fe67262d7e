package core

import "time"

// Challenge represents a one-time wallet ownership challenge
type Challenge struct {
	Key           string    // sha256(wallet || issued_at || nonce), hex encoded
	WalletAddress string    // Solana address the challenge was issued for
	Nonce         string    // Random nonce embedded in the message
	IssuedAt      time.Time // When the challenge was created
	ExpiresAt     time.Time // When the challenge expires
	Message       string    // Human readable text the wallet signs
}

// Expired reports whether the challenge can no longer be consumed at now
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Claims represents an authenticated session carried by a bearer token
type Claims struct {
	ID            string    // Token ID
	WalletAddress string    // Wallet address or demo user ID
	DemoMode      bool      // Whether the session skipped wallet verification
	VerifiedAt    time.Time // When the wallet (or demo user) was authenticated
	IssuedAt      time.Time // When the token was minted
	ExpiresAt     time.Time // When the token stops being accepted
	Issuer        string    // Token issuer
}

// TTL returns the lifetime the token was minted with
func (c Claims) TTL() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}
