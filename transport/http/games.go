package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
	"github.com/layer-3/leap/service"
)

// GameHandlers contains HTTP handlers for game session endpoints
type GameHandlers struct {
	games  *service.GameSessionTracker
	clock  ports.Clock
	logger zerolog.Logger
}

// NewGameHandlers creates new game handlers
func NewGameHandlers(games *service.GameSessionTracker, clock ports.Clock, logger zerolog.Logger) *GameHandlers {
	return &GameHandlers{
		games:  games,
		clock:  clock,
		logger: logger,
	}
}

// Start opens a game session for the session's wallet
func (h *GameHandlers) Start(c *gin.Context) {
	wallet, demo := identity(c)

	session, eligibility, err := h.games.Start(c.Request.Context(), wallet, demo, h.clock.Now())
	if err != nil {
		h.logger.Error().Err(err).Str("wallet", core.RedactWallet(wallet)).Msg("failed to start game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start game session"})
		return
	}

	reason := "Eligible for rewards"
	if !eligibility.Eligible {
		reason = eligibility.Message
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"session_id":           session.ID,
		"eligible_for_rewards": eligibility.Eligible,
		"eligibility_reason":   reason,
	})
}

// Complete closes a game session and settles its reward
func (h *GameHandlers) Complete(c *gin.Context) {
	var req struct {
		SessionID       string `json:"session_id" binding:"required"`
		Score           int    `json:"score"`
		LevelsCompleted int    `json:"levels_completed"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	wallet, demo := identity(c)
	result, err := h.games.Complete(c.Request.Context(), req.SessionID, wallet, demo, req.Score, req.LevelsCompleted, h.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidGameResult):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Score and levels completed must not be negative"})
		case errors.Is(err, core.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
		case errors.Is(err, core.ErrSessionCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "Game session already completed"})
		default:
			h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to complete game")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete game session"})
		}
		return
	}

	resp := gin.H{
		"success":          true,
		"final_score":      result.FinalScore,
		"levels_completed": result.LevelsCompleted,
		"reward_awarded":   result.RewardAwarded,
		"reward_amount":    result.RewardAmount.InexactFloat64(),
	}
	if result.RewardAwarded {
		resp["transaction_signature"] = result.TransactionReference
	} else {
		resp["reward_reason"] = result.RewardReason
	}

	c.JSON(http.StatusOK, resp)
}
