package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildconnect",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildconnect",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status and outcome.",
		},
		[]string{"target", "outcome"},
	)

	vendorDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildconnect",
			Name:      "vendor_decisions_total",
			Help:      "Vendor approval decisions by outcome.",
		},
		[]string{"decision"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, vendorDecisions)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncTransition increments the transition counter; outcome is "ok" or the
// error kind.
func IncTransition(target, outcome string) {
	bookingTransitions.WithLabelValues(target, outcome).Inc()
}

// IncVendorDecision increments the approval-decision counter.
func IncVendorDecision(decision string) {
	vendorDecisions.WithLabelValues(decision).Inc()
}
