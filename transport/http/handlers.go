package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/layer-3/leap/adapters/solana"
	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	logger      zerolog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, logger zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// Challenge issues a message for the wallet to sign
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.WalletAddress)
	if errors.Is(err, core.ErrInvalidWalletFormat) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Invalid wallet address format"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create challenge")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create authentication challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"challenge_key": challenge.Key,
		"message":       challenge.Message,
		"expires_in":    int(h.authService.ChallengeTTL().Seconds()),
	})
}

// Verify checks the signed challenge and issues a session token
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		ChallengeKey  string          `json:"challenge_key" binding:"required"`
		Signature     json.RawMessage `json:"signature" binding:"required"`
		WalletAddress string          `json:"wallet_address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	signature, err := solana.DecodeSignature(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature encoding"})
		return
	}

	token, claims, err := h.authService.Login(c.Request.Context(), req.ChallengeKey, signature, req.WalletAddress)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Signature verification failed"

		// Map specific errors to appropriate status codes
		switch {
		case errors.Is(err, core.ErrInvalidWalletFormat):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid wallet address format"
		case errors.Is(err, core.ErrChallengeNotFound):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid or expired challenge"
		case errors.Is(err, core.ErrChallengeExpired):
			statusCode = http.StatusBadRequest
			errorMsg = "Challenge expired"
		case errors.Is(err, core.ErrWalletMismatch):
			statusCode = http.StatusBadRequest
			errorMsg = "Wallet address mismatch"
		case errors.Is(err, core.ErrInvalidSignature):
			statusCode = http.StatusUnauthorized
			errorMsg = "Invalid signature"
		default:
			h.logger.Error().Err(err).Msg("signature verification failed")
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(claims.TTL().Seconds()),
	})
}

// Demo issues a session token for a fresh demo identity
func (h *AuthHandlers) Demo(c *gin.Context) {
	token, claims, err := h.authService.CreateDemoSession(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create demo session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create demo session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(claims.TTL().Seconds()),
		"demo_mode":    true,
		"demo_user_id": claims.WalletAddress,
	})
}

// Health reports that the API is up
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Purpe's Leap API is running!",
		"version": "1.0.0",
	})
}
