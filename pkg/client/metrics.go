package client

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes recorded in safeserve_client_refresh_total
const (
	refreshSuccess        = "success"
	refreshMissingRefresh = "missing_refresh"
	refreshFailed         = "failed"
)

// metrics is nil when WithMetrics was not given; every method tolerates that
type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safeserve",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the SafeServe backend.",
		}, []string{"method", "classification", "code"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safeserve",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Credential refresh cycles by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safeserve",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the SafeServe backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "classification"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.refreshes, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register client metrics: %w", err)
		}
	}
	return m, nil
}

func (m *metrics) observeRequest(method string, classification Classification, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, classification.String(), code).Inc()
	m.duration.WithLabelValues(method, classification.String()).Observe(elapsed.Seconds())
}

func (m *metrics) observeRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}
