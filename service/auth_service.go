package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const challengeMessage = "Sign this message to verify wallet ownership for Purpe's Leap.\n\n" +
	"Wallet: %s\nTime: %d\nNonce: %s\n\n" +
	"This signature will not trigger any blockchain transaction or cost any gas fees."

// AuthService handles authentication business logic
type AuthService struct {
	challenges ports.ChallengeStore
	verifier   ports.SignatureVerifier
	tokenizer  ports.Tokenizer
	metrics    ports.Metrics
	clock      ports.Clock
	logger     zerolog.Logger

	challengeTTL time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	challenges ports.ChallengeStore,
	verifier ports.SignatureVerifier,
	tokenizer ports.Tokenizer,
	metrics ports.Metrics,
	clock ports.Clock,
	logger zerolog.Logger,
	challengeTTL time.Duration,
) *AuthService {
	return &AuthService{
		challenges:   challenges,
		verifier:     verifier,
		tokenizer:    tokenizer,
		metrics:      metrics,
		clock:        clock,
		logger:       logger.With().Str("component", "auth").Logger(),
		challengeTTL: challengeTTL,
	}
}

// ChallengeTTL is the lifetime of issued challenges
func (s *AuthService) ChallengeTTL() time.Duration {
	return s.challengeTTL
}

// CreateChallenge generates a new authentication challenge for the wallet
func (s *AuthService) CreateChallenge(ctx context.Context, walletAddress string) (core.Challenge, error) {
	if err := core.ValidateWalletAddress(walletAddress); err != nil {
		return core.Challenge{}, err
	}

	// Generate random nonce
	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := s.clock.Now()
	issued := now.Unix()
	key := sha256.Sum256([]byte(walletAddress + strconv.FormatInt(issued, 10) + nonce))

	challenge := core.Challenge{
		Key:           hex.EncodeToString(key[:]),
		WalletAddress: walletAddress,
		Nonce:         nonce,
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.challengeTTL),
		Message:       fmt.Sprintf(challengeMessage, walletAddress, issued, nonce),
	}

	if err := s.challenges.Put(ctx, challenge); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to store challenge: %w", err)
	}
	s.metrics.ChallengeIssued()

	return challenge, nil
}

// Login consumes the challenge, verifies the wallet's signature over its
// message and mints a session token
func (s *AuthService) Login(ctx context.Context, challengeKey string, signature []byte, walletAddress string) (string, core.Claims, error) {
	if err := core.ValidateWalletAddress(walletAddress); err != nil {
		s.metrics.LoginAttempt("invalid_wallet")
		return "", core.Claims{}, err
	}

	now := s.clock.Now()

	// The challenge is gone after this call whatever happens next
	challenge, err := s.challenges.Consume(ctx, challengeKey, walletAddress, now)
	if err != nil {
		s.metrics.LoginAttempt("invalid_challenge")
		return "", core.Claims{}, fmt.Errorf("invalid challenge: %w", err)
	}

	ok, err := s.verifier.Verify(challenge.Message, signature, walletAddress)
	if err != nil {
		s.metrics.LoginAttempt("error")
		if errors.Is(err, core.ErrInvalidWalletFormat) {
			return "", core.Claims{}, err
		}
		return "", core.Claims{}, fmt.Errorf("signature verification failed: %w", errors.Join(core.ErrDependency, err))
	}
	if !ok {
		s.metrics.LoginAttempt("invalid_signature")
		s.logger.Info().Str("wallet", core.RedactWallet(walletAddress)).Msg("signature rejected")
		return "", core.Claims{}, core.ErrInvalidSignature
	}

	token, claims, err := s.tokenizer.Mint(walletAddress, false, now)
	if err != nil {
		s.metrics.LoginAttempt("error")
		return "", core.Claims{}, fmt.Errorf("failed to create access token: %w", err)
	}

	s.metrics.LoginAttempt("success")
	s.logger.Info().Str("wallet", core.RedactWallet(walletAddress)).Msg("wallet verified")

	return token, claims, nil
}

// CreateDemoSession mints a token for a fresh demo identity without wallet verification
func (s *AuthService) CreateDemoSession(ctx context.Context) (string, core.Claims, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", core.Claims{}, fmt.Errorf("failed to generate demo id: %w", err)
	}

	now := s.clock.Now()
	demoID := fmt.Sprintf("demo_%d_%s", now.Unix(), hex.EncodeToString(suffix))

	token, claims, err := s.tokenizer.Mint(demoID, true, now)
	if err != nil {
		return "", core.Claims{}, fmt.Errorf("failed to create demo token: %w", err)
	}

	s.logger.Info().Str("demo_user_id", demoID).Msg("demo session created")
	return token, claims, nil
}

// ValidateAccessToken returns the claims of a valid, unexpired token
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (core.Claims, error) {
	claims, err := s.tokenizer.Validate(accessToken, s.clock.Now())
	if err != nil {
		return core.Claims{}, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}
