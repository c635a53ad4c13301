package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "credebt_setup_build_info",
			Help: "Build information of the platform setup tools",
		},
		[]string{"version", "commit", "date"},
	)

	StepTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credebt_setup_step_total",
			Help: "Total number of setup steps executed",
		},
		[]string{"flow", "step", "status"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credebt_setup_step_duration_seconds",
			Help:    "Duration of setup steps",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"flow", "step"},
	)

	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credebt_setup_transactions_total",
			Help: "Total number of transactions submitted",
		},
		[]string{"status"},
	)

	RunOutcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credebt_setup_run_outcome_total",
			Help: "Total number of completed runs by outcome",
		},
		[]string{"flow", "outcome"},
	)
)

// ObserveStep records the duration and status of a single flow step. It is
// meant to be deferred with a pointer to the step's named error result.
func ObserveStep(flow, step string, start time.Time, err *error) {
	status := "success"
	if err != nil && *err != nil {
		status = "error"
	}
	StepTotal.WithLabelValues(flow, step, status).Inc()
	StepDuration.WithLabelValues(flow, step).Observe(time.Since(start).Seconds())
}

// WriteTextfile dumps the default registry in the node-exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
