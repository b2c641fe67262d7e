package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/layer-3/leap/ports"
	"github.com/layer-3/leap/service"
)

// Dependencies is everything the router hands to its handlers
type Dependencies struct {
	Auth    *service.AuthService
	Engine  *service.EligibilityEngine
	Ledger  *service.RewardLedger
	Games   *service.GameSessionTracker
	Clock   ports.Clock
	Logger  zerolog.Logger
	Metrics RequestRecorder
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
	CORSOrigins    []string
}

// SetupRouter sets up the Gin router
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger, deps.Metrics))
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	// Create handlers
	authHandlers := NewAuthHandlers(deps.Auth, deps.Logger)
	rewardHandlers := NewRewardHandlers(deps.Engine, deps.Ledger, deps.Clock, deps.Logger)
	gameHandlers := NewGameHandlers(deps.Games, deps.Clock, deps.Logger)
	requireAuth := AuthMiddleware(deps.Auth)

	api := router.Group("/api")
	api.GET("/", Health)
	api.GET("/token/balance/:wallet_address", rewardHandlers.Balance)
	api.GET("/leaderboard", rewardHandlers.Leaderboard)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/challenge", authHandlers.Challenge)
		auth.POST("/verify", authHandlers.Verify)
		auth.POST("/demo", authHandlers.Demo)
	}

	// Protected routes
	rewards := api.Group("/rewards", requireAuth)
	{
		rewards.GET("/eligibility", rewardHandlers.Eligibility)
		rewards.POST("/claim", rewardHandlers.Claim)
	}
	api.GET("/user/stats", requireAuth, rewardHandlers.Stats)

	game := api.Group("/game", requireAuth)
	{
		game.POST("/start", gameHandlers.Start)
		game.POST("/complete", gameHandlers.Complete)
	}

	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowHeaders("Authorization")
	return cfg
}
