package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/service"
)

const (
	ctxWalletAddress = "walletAddress"
	ctxDemoMode      = "demoMode"
)

// AuthMiddleware creates middleware that validates access tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || !strings.EqualFold(auth[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := authService.ValidateAccessToken(c.Request.Context(), auth[7:])
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(ctxWalletAddress, claims.WalletAddress)
		c.Set(ctxDemoMode, claims.DemoMode)

		c.Next()
	}
}

// identity returns what AuthMiddleware stored for the request
func identity(c *gin.Context) (string, bool) {
	return c.GetString(ctxWalletAddress), c.GetBool(ctxDemoMode)
}

// RequestRecorder observes served requests
type RequestRecorder interface {
	RecordRequest(method, endpoint string, status int, duration time.Duration)
}

// RequestLogger logs every request with zerolog and reports it to recorder when set
func RequestLogger(logger zerolog.Logger, recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()

		if recorder != nil {
			recorder.RecordRequest(c.Request.Method, endpoint, status, duration)
		}

		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", endpoint).
			Int("status", status).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
