package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/layer-3/leap/core"
	"github.com/layer-3/leap/ports"
)

const namespace = "leap"

// Prometheus records business and HTTP metrics on its own registry
type Prometheus struct {
	registry *prometheus.Registry

	challengesIssued prometheus.Counter
	loginAttempts    *prometheus.CounterVec
	rewardsGranted   *prometheus.CounterVec
	rewardsSOL       *prometheus.CounterVec
	rewardsDenied    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with the Go runtime collectors
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		challengesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_issued_total",
			Help:      "Total wallet challenges issued",
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total challenge verifications by result",
		}, []string{"result"}),
		rewardsGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_granted_total",
			Help:      "Total rewards granted",
		}, []string{"reward_type", "mode"}),
		rewardsSOL: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_granted_sol_total",
			Help:      "Total SOL granted",
		}, []string{"mode"}),
		rewardsDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_denied_total",
			Help:      "Total reward requests refused by reason",
		}, []string{"reason", "mode"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"endpoint", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "method", "status"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.challengesIssued,
		p.loginAttempts,
		p.rewardsGranted,
		p.rewardsSOL,
		p.rewardsDenied,
		p.httpRequests,
		p.httpDuration,
	)

	return p
}

var _ ports.Metrics = (*Prometheus)(nil)

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) ChallengeIssued() {
	p.challengesIssued.Inc()
}

func (p *Prometheus) LoginAttempt(result string) {
	p.loginAttempts.WithLabelValues(result).Inc()
}

func (p *Prometheus) RewardGranted(rewardType core.RewardType, demo bool, amount decimal.Decimal) {
	p.rewardsGranted.WithLabelValues(string(rewardType), mode(demo)).Inc()
	p.rewardsSOL.WithLabelValues(mode(demo)).Add(amount.InexactFloat64())
}

func (p *Prometheus) RewardDenied(reason core.Reason, demo bool) {
	p.rewardsDenied.WithLabelValues(string(reason), mode(demo)).Inc()
}

// RecordRequest observes one served HTTP request
func (p *Prometheus) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	p.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	p.httpDuration.WithLabelValues(endpoint, method, code).Observe(duration.Seconds())
}

func mode(demo bool) string {
	if demo {
		return "demo"
	}
	return "real"
}

// Nop discards every metric
type Nop struct{}

func (Nop) ChallengeIssued()                                     {}
func (Nop) LoginAttempt(string)                                  {}
func (Nop) RewardGranted(core.RewardType, bool, decimal.Decimal) {}
func (Nop) RewardDenied(core.Reason, bool)                       {}
