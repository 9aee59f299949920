package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Telegram
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telefilm_updates_total",
			Help: "Telegram updates handled, by kind",
		},
		[]string{"kind"},
	)

	// PayPal
	PaymentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telefilm_payments_created_total",
			Help: "Payment creation attempts, by flow and outcome",
		},
		[]string{"flow", "status"},
	)
	PaymentsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telefilm_payments_executed_total",
			Help: "Payment executions, by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)
	PayPalRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "telefilm_paypal_request_duration_seconds",
			Help: "Duration of PayPal API requests in seconds",
		},
		[]string{"endpoint"},
	)

	// Exchange rate feed
	RateRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telefilm_rate_requests_total",
			Help: "Exchange rate fetches, by outcome",
		},
		[]string{"status"},
	)

	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telefilm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

var once sync.Once

// InitMetrics registers the collectors with the default registry, which
// already carries the Go and process collectors.
func InitMetrics() {
	once.Do(func() {
		prometheus.MustRegister(UpdatesTotal)
		prometheus.MustRegister(PaymentsCreatedTotal)
		prometheus.MustRegister(PaymentsExecutedTotal)
		prometheus.MustRegister(PayPalRequestDuration)
		prometheus.MustRegister(RateRequestsTotal)
		prometheus.MustRegister(HTTPRequestsTotal)
	})
}
