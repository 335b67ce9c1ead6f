// Package metrics holds the Prometheus collectors of the stress service
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stress"

var (
	stressRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total stress runs by scenario and outcome",
		},
		[]string{"scenario", "status"},
	)

	fragilityScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fragility_score",
			Help:      "Distribution of fragility scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"scenario"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of stress runs including Monte Carlo simulation",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"scenario"},
	)

	alertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "alerts_total",
			Help:      "Fragility alerts sent",
		},
		[]string{"status"},
	)

	keyRateFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cbr",
			Name:      "key_rate_fetches_total",
			Help:      "Central bank key rate lookups",
		},
		[]string{"status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
		},
		[]string{"method", "path"},
	)
)

// ObserveRun records a completed stress run
func ObserveRun(scenario string, score int, elapsed time.Duration) {
	stressRunsTotal.WithLabelValues(scenario, "ok").Inc()
	fragilityScore.WithLabelValues(scenario).Observe(float64(score))
	runDuration.WithLabelValues(scenario).Observe(elapsed.Seconds())
}

// ObserveRunFailure records a stress run that did not produce a result
func ObserveRunFailure(scenario, reason string) {
	stressRunsTotal.WithLabelValues(scenario, reason).Inc()
}

// ObserveAlert records the outcome of a fragility alert
func ObserveAlert(err error) {
	alertsTotal.WithLabelValues(status(err)).Inc()
}

// ObserveKeyRate records the outcome of a key rate lookup
func ObserveKeyRate(err error) {
	keyRateFetches.WithLabelValues(status(err)).Inc()
}

// ObserveRequest records a served HTTP request
func ObserveRequest(method, path string, code int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, statusClass(code)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
