package core

import "errors"

var (
	ErrInvalidWalletFormat = errors.New("invalid wallet address format")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeExpired    = errors.New("challenge expired")
	ErrWalletMismatch      = errors.New("wallet address mismatch")
	ErrInvalidSignature    = errors.New("invalid signature")

	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenMalformed  = errors.New("malformed token")
	ErrMissingIdentity = errors.New("token has no wallet identity")

	ErrSessionNotFound   = errors.New("game session not found")
	ErrSessionCompleted  = errors.New("game session already completed")
	ErrInvalidGameResult = errors.New("score and levels must not be negative")

	// ErrDependency marks failures of storage or external capabilities.
	ErrDependency = errors.New("dependency unavailable")
)

// IneligibleError carries the structured reason a grant was refused.
type IneligibleError struct {
	Eligibility Eligibility
}

func (e *IneligibleError) Error() string {
	return "reward ineligible: " + string(e.Eligibility.Reason)
}
