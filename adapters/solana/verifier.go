package solana

import (
	"crypto/ed25519"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

// Ed25519Verifier checks signatures against the public key a Solana address encodes
type Ed25519Verifier struct{}

// NewEd25519Verifier creates the production signature verifier
func NewEd25519Verifier() ports.SignatureVerifier {
	return Ed25519Verifier{}
}

// Verify reports whether signature is a valid ed25519 signature of message by wallet
func (Ed25519Verifier) Verify(message string, signature []byte, walletAddress string) (bool, error) {
	pub, err := core.WalletPublicKey(walletAddress)
	if err != nil {
		return false, err
	}
	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(pub, []byte(message), signature), nil
}

// PermissiveVerifier accepts every signature. Development only.
type PermissiveVerifier struct{}

// NewPermissiveVerifier creates a verifier that skips signature checks
func NewPermissiveVerifier() ports.SignatureVerifier {
	return PermissiveVerifier{}
}

// Verify accepts every signature
func (PermissiveVerifier) Verify(message string, signature []byte, walletAddress string) (bool, error) {
	return true, nil
}
