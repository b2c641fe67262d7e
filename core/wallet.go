package core

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

const (
	minWalletLength = 32
	maxWalletLength = 44
)

// WalletPublicKey decodes a base58 Solana address into its ed25519 public key.
func WalletPublicKey(address string) (ed25519.PublicKey, error) {
	if len(address) < minWalletLength || len(address) > maxWalletLength {
		return nil, ErrInvalidWalletFormat
	}
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidWalletFormat
	}
	return ed25519.PublicKey(raw), nil
}

// ValidateWalletAddress returns ErrInvalidWalletFormat unless address has the
// shape of a Solana public key.
func ValidateWalletAddress(address string) error {
	_, err := WalletPublicKey(address)
	return err
}

// RedactWallet keeps the first 8 and last 4 characters of an address.
func RedactWallet(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:8] + "..." + address[len(address)-4:]
}
