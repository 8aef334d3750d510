package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Connection outcomes recorded by the single-slot server.
const (
	OutcomeServed   = "served"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Confirmation results recorded after a state-changing transmit.
const (
	ConfirmConfirmed = "confirmed"
	ConfirmTimeout   = "timeout"
	ConfirmError     = "error"
)

var (
	registerOnce sync.Once

	connections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snowdon",
			Name:      "connections_total",
			Help:      "Accepted or rejected bridge connections by outcome.",
		},
		[]string{"outcome"},
	)
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snowdon",
			Name:      "requests_total",
			Help:      "Processed bridge requests by method and status code.",
		},
		[]string{"method", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "snowdon",
			Name:      "request_duration_seconds",
			Help:      "Time from request completion to response ready, including hardware polling.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, .75, 1, 2.5, 5, 10},
		},
		[]string{"method", "status"},
	)
	transmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snowdon",
			Name:      "transmits_total",
			Help:      "Infrared codes handed to the transmitter by command name.",
		},
		[]string{"command"},
	)
	confirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snowdon",
			Name:      "confirmations_total",
			Help:      "Post-transmit status confirmation results.",
		},
		[]string{"result"},
	)
	adminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "snowdon",
			Subsystem: "admin_http",
			Name:      "requests_total",
			Help:      "Admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	adminDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "snowdon",
			Subsystem: "admin_http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			connections,
			requests,
			requestDuration,
			transmits,
			confirmations,
			adminRequests,
			adminDuration,
		)
	})
}

func RecordConnection(outcome string) {
	RegisterMetrics()
	connections.WithLabelValues(outcome).Inc()
}

func RecordRequest(method string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	requests.WithLabelValues(method, statusLabel).Inc()
	requestDuration.WithLabelValues(method, statusLabel).Observe(duration.Seconds())
}

func RecordTransmit(command string) {
	RegisterMetrics()
	transmits.WithLabelValues(command).Inc()
}

func RecordConfirmation(result string) {
	RegisterMetrics()
	confirmations.WithLabelValues(result).Inc()
}

func RecordAdminRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	adminRequests.WithLabelValues(method, path, statusLabel).Inc()
	adminDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
