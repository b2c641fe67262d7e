package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
	"github.com/layer-3/leap/service"
)

// RewardHandlers contains HTTP handlers for balance, eligibility and reward endpoints
type RewardHandlers struct {
	engine *service.EligibilityEngine
	ledger *service.RewardLedger
	clock  ports.Clock
	logger zerolog.Logger
}

// NewRewardHandlers creates new reward handlers
func NewRewardHandlers(engine *service.EligibilityEngine, ledger *service.RewardLedger, clock ports.Clock, logger zerolog.Logger) *RewardHandlers {
	return &RewardHandlers{
		engine: engine,
		ledger: ledger,
		clock:  clock,
		logger: logger,
	}
}

// Balance reports the token holdings of any wallet
func (h *RewardHandlers) Balance(c *gin.Context) {
	wallet := c.Param("wallet_address")
	if err := core.ValidateWalletAddress(wallet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	info, err := h.engine.CheckBalance(c.Request.Context(), wallet)
	if err != nil {
		h.logger.Error().Err(err).Str("wallet", core.RedactWallet(wallet)).Msg("balance lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get token balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address":      wallet,
		"balance":             info.Balance.InexactFloat64(),
		"usd_value":           info.USDValue.InexactFloat64(),
		"token_price":         info.TokenPrice.InexactFloat64(),
		"has_minimum_balance": info.MeetsMinimum,
		"account_exists":      info.AccountExists,
		"last_updated":        h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// Eligibility reports whether the session's wallet may claim a reward now
func (h *RewardHandlers) Eligibility(c *gin.Context) {
	wallet, demo := identity(c)
	decision := h.engine.Evaluate(c.Request.Context(), wallet, demo, h.clock.Now())

	resp := gin.H{
		"success":        true,
		"wallet_address": wallet,
		"demo_mode":      demo,
		"eligible":       decision.Eligible,
	}
	if decision.Eligible {
		resp["remaining_daily_amount"] = decision.Remaining.InexactFloat64()
	} else {
		resp["reason"] = decision.Message
		resp["reason_code"] = decision.Reason
		if decision.NextEligible != nil {
			resp["next_eligible"] = decision.NextEligible.UTC().Format(time.RFC3339)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Claim grants a reward to the session's wallet
func (h *RewardHandlers) Claim(c *gin.Context) {
	var req struct {
		RewardType string `json:"reward_type"`
	}

	// The body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Unknown or missing types are paid as game completions
	wallet, demo := identity(c)
	result := h.ledger.Grant(c.Request.Context(), wallet, demo, core.RewardType(req.RewardType), h.clock.Now())
	if !result.Granted {
		resp := gin.H{
			"success": false,
			"error":   result.Eligibility.Message,
			"reason":  result.Eligibility.Reason,
		}
		if result.Eligibility.NextEligible != nil {
			resp["next_eligible"] = result.Eligibility.NextEligible.UTC().Format(time.RFC3339)
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"amount_sol":            result.Amount.InexactFloat64(),
		"transaction_signature": result.TransactionReference,
		"reward_type":           result.RewardType,
	})
}

// Stats summarises the session wallet's rewards
func (h *RewardHandlers) Stats(c *gin.Context) {
	wallet, demo := identity(c)

	stats, err := h.ledger.StatsFor(c.Request.Context(), wallet, demo, h.clock.Now())
	if err != nil {
		h.logger.Error().Err(err).Str("wallet", core.RedactWallet(wallet)).Msg("failed to get user stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address":        stats.WalletAddress,
		"daily_rewards_claimed": stats.DailyRewardsClaimed,
		"total_amount_today":    stats.TotalAmountToday.InexactFloat64(),
		"daily_limit":           stats.DailyLimit.InexactFloat64(),
		"remaining_today":       stats.RemainingToday.InexactFloat64(),
		"total_rewards_earned":  stats.TotalRewardsEarned.InexactFloat64(),
		"total_rewards_count":   stats.TotalRewardsCount,
		"demo_mode":             demo,
	})
}

// Leaderboard ranks wallets by total rewards
func (h *RewardHandlers) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.ledger.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get leaderboard"})
		return
	}

	board := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		board = append(board, gin.H{
			"rank":           e.Rank,
			"wallet_address": e.WalletAddress,
			"total_rewards":  e.TotalRewards.InexactFloat64(),
			"total_games":    e.TotalGames,
			"last_activity":  e.LastActivity.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "leaderboard": board})
}
