// Package metrics provides Prometheus metrics for auth operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the auth core.
type Metrics struct {
	enabled bool

	// Session token metrics
	tokenMintsTotal           prometheus.Counter
	tokenResolveFailuresTotal *prometheus.CounterVec

	// Middleware authentication metrics
	authRequestsTotal prometheus.Counter
	authFailuresTotal *prometheus.CounterVec

	// Grant protocol metrics
	grantsTotal *prometheus.CounterVec

	// Login exchange metrics
	loginExchangesTotal *prometheus.CounterVec
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.tokenMintsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authcore_token_mints_total",
		Help: "Total session tokens minted",
	})

	m.tokenResolveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_token_resolve_failures_total",
		Help: "Total session token resolution failures",
	}, []string{"reason"})

	m.authRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authcore_auth_requests_total",
		Help: "Total authenticated requests seen by middleware",
	})

	m.authFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_auth_failures_total",
		Help: "Total middleware authentication failures",
	}, []string{"reason"})

	m.grantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_grants_total",
		Help: "Total grant operations by outcome",
	}, []string{"op", "result"})

	m.loginExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_login_exchanges_total",
		Help: "Total external login code exchanges by outcome",
	}, []string{"result"})

	return m
}

// RecordMint records a minted session token.
func (m *Metrics) RecordMint() {
	if !m.enabled {
		return
	}
	m.tokenMintsTotal.Inc()
}

// RecordResolveFailure records a token resolution failure.
// reason: "invalid", "expired".
func (m *Metrics) RecordResolveFailure(reason string) {
	if !m.enabled {
		return
	}
	m.tokenResolveFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordAuthRequest records a request that presented a bearer token.
func (m *Metrics) RecordAuthRequest() {
	if !m.enabled {
		return
	}
	m.authRequestsTotal.Inc()
}

// RecordAuthFailure records a middleware authentication failure.
// reason: "missing_token", "invalid_token", "token_expired", "forbidden".
func (m *Metrics) RecordAuthFailure(reason string) {
	if !m.enabled {
		return
	}
	m.authFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordGrant records a grant operation outcome.
// op: "issue", "redeem".
func (m *Metrics) RecordGrant(op, result string) {
	if !m.enabled {
		return
	}
	m.grantsTotal.WithLabelValues(op, result).Inc()
}

// RecordLoginExchange records a login code exchange outcome.
func (m *Metrics) RecordLoginExchange(result string) {
	if !m.enabled {
		return
	}
	m.loginExchangesTotal.WithLabelValues(result).Inc()
}
