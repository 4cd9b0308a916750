package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Adapted from the teacher's auth metrics (internal/handler/http/auth/
// metrics.go): the role label is dropped since GReader has no role
// concept, every authenticated user carries the same capability scoped
// to their own rows.
var (
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greader_auth_requests_total",
			Help: "Total GReader authentication requests by result",
		},
		[]string{"result"}, // result: success | failure
	)

	loginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "greader_login_duration_seconds",
			Help:    "ClientLogin request duration",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)
)

// RecordAuthRequest records a bearer-token resolution attempt.
func RecordAuthRequest(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}

// RecordLoginDuration records how long a ClientLogin request took.
func RecordLoginDuration(seconds float64) {
	loginDuration.Observe(seconds)
}
