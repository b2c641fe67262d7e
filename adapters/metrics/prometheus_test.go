package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/leap/core"
)

func TestPrometheusCounters(t *testing.T) {
	p := NewPrometheus()

	p.ChallengeIssued()
	p.ChallengeIssued()
	p.LoginAttempt("success")
	p.RewardGranted(core.RewardGameCompletion, true, decimal.RequireFromString("0.005"))
	p.RewardGranted(core.RewardGameCompletion, true, decimal.RequireFromString("0.005"))
	p.RewardDenied(core.ReasonTooSoon, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.challengesIssued))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.loginAttempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.rewardsGranted.WithLabelValues("game_completion", "demo")))
	assert.InDelta(t, 0.01, testutil.ToFloat64(p.rewardsSOL.WithLabelValues("demo")), 1e-12)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.rewardsDenied.WithLabelValues("TooSoon", "real")))
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus()
	p.RecordRequest(http.MethodGet, "/api/leaderboard", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{endpoint="/api/leaderboard",method="GET",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
