package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const AudienceAccess = "session:access"

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	ttl       time.Duration
}

// NewHMACTokenizer creates a tokenizer signing HS256 tokens with a shared secret
func NewHMACTokenizer(secret []byte, issuer string, ttl time.Duration) (ports.Tokenizer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTTokenizer{
		method:    jwt.SigningMethodHS256,
		signKey:   secret,
		verifyKey: secret,
		issuer:    issuer,
		ttl:       ttl,
	}, nil
}

// NewECDSATokenizer creates a tokenizer signing ES256 tokens
func NewECDSATokenizer(signKey *ecdsa.PrivateKey, issuer string, ttl time.Duration) ports.Tokenizer {
	return &JWTTokenizer{
		method:    jwt.SigningMethodES256,
		signKey:   signKey,
		verifyKey: &signKey.PublicKey,
		issuer:    issuer,
		ttl:       ttl,
	}
}

// LoadECDSAKey reads a PEM encoded EC private key
func LoadECDSAKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	return key, nil
}

// Mint issues an access token for the wallet (or demo user id)
func (j *JWTTokenizer) Mint(walletAddress string, demo bool, now time.Time) (string, core.Claims, error) {
	issuedAt := now.UTC().Truncate(time.Second)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   walletAddress,
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		WalletAddress: walletAddress,
		DemoMode:      demo,
		VerifiedAt:    jwt.NewNumericDate(issuedAt),
	}

	token := jwt.NewWithClaims(j.method, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", core.Claims{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signedToken, claims.core(), nil
}

// Validate parses an access token and returns its claims
func (j *JWTTokenizer) Validate(tokenStr string, now time.Time) (core.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.verifyKey, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithAudience(AudienceAccess),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return core.Claims{}, core.ErrTokenExpired
	}
	if err != nil {
		return core.Claims{}, fmt.Errorf("%w: %v", core.ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return core.Claims{}, core.ErrTokenMalformed
	}
	if claims.WalletAddress == "" {
		return core.Claims{}, core.ErrMissingIdentity
	}

	return claims.core(), nil
}

func (c AccessClaims) core() core.Claims {
	claims := core.Claims{
		ID:            c.ID,
		WalletAddress: c.WalletAddress,
		DemoMode:      c.DemoMode,
		Issuer:        c.Issuer,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.UTC()
	}
	if c.VerifiedAt != nil {
		claims.VerifiedAt = c.VerifiedAt.UTC()
	}
	return claims
}
