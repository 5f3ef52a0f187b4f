package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RebalanceAttempts counts completed rebalance attempts by outcome
	// ("submitted", "failed", "nothing_to_do").
	RebalanceAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rebalance_attempts_total",
			Help: "Number of rebalance attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// SwapInstructionsPerRebalance observes how many swap instructions the
	// matcher produced per rebalance run.
	SwapInstructionsPerRebalance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rebalance_swap_instructions",
			Help:    "Swap instructions generated per rebalance run.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	// CollaboratorErrors counts failed round-trips to external collaborators,
	// labeled by collaborator ("portfolio", "allowance", "quote", "submission").
	CollaboratorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_errors_total",
			Help: "Failed calls to external collaborators, labeled by collaborator.",
		},
		[]string{"collaborator"},
	)

	// BatchSubmissionSeconds observes end-to-end batch submission latency,
	// labeled by backend ("smart_account", "wallet_calls").
	BatchSubmissionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rebalance_batch_submission_seconds",
			Help:    "Latency of atomic batch submissions, labeled by backend.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"backend"},
	)
)

// MustRegisterMetrics registers all rebalancer metrics with the default
// registry. Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		RebalanceAttempts,
		SwapInstructionsPerRebalance,
		CollaboratorErrors,
		BatchSubmissionSeconds,
	)
}
