package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateActionsTotal counts reducer actions applied per container.
	StateActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_state_actions_total",
		Help: "Total number of actions applied to a state container",
	}, []string{"container", "action"})

	// AuthAttemptsTotal counts login and signup attempts by outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_auth_attempts_total",
		Help: "Total number of login and signup attempts",
	}, []string{"operation", "outcome"})

	// SimulatedLatency records how long operations waited on simulated latency.
	SimulatedLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapgram_simulated_latency_seconds",
		Help:    "Simulated latency waited by state container operations",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"})

	// SessionStoreErrors counts failed session storage calls by driver.
	SessionStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_session_store_errors_total",
		Help: "Total number of failed session storage operations",
	}, []string{"driver", "operation"})

	// WebSocketConnectionsTotal is the gauge of open state-stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapgram_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// RecordAction increments the action counter for container/action.
func RecordAction(container, action string) {
	StateActionsTotal.WithLabelValues(container, action).Inc()
}

// RecordAuthAttempt increments the auth attempt counter.
func RecordAuthAttempt(operation string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	AuthAttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

// TrackLatency returns a function that records the elapsed wait when called.
func TrackLatency(operation string) func() {
	start := time.Now()
	return func() {
		SimulatedLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
