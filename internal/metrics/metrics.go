package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	paymentSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawnest",
			Name:      "payment_sessions_total",
			Help:      "Payment session creations by result.",
		},
		[]string{"result"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawnest",
			Name:      "webhook_events_total",
			Help:      "Provider webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	statusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawnest",
			Name:      "status_updates_total",
			Help:      "Booking approval updates by target status.",
		},
		[]string{"status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawnest",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(paymentSessions, webhookEvents, statusUpdates, httpRequests)
	})
}

// IncSession counts a session creation attempt by result label.
func IncSession(result string) {
	paymentSessions.WithLabelValues(result).Inc()
}

// IncWebhook counts a webhook delivery by outcome label.
func IncWebhook(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

// IncStatusUpdate counts an approval transition.
func IncStatusUpdate(status string) {
	statusUpdates.WithLabelValues(status).Inc()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
