package batch

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pvetools/pvefleet/internal/provisioning/clone"
)

var (
	// Outcome metrics
	outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pvefleet",
			Subsystem: "batch",
			Name:      "outcomes_total",
			Help:      "Total number of per-guest outcomes by terminal status",
		},
		[]string{"status"},
	)

	entryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pvefleet",
			Subsystem: "batch",
			Name:      "entry_duration_seconds",
			Help:      "Duration of one guest's clone-and-configure lifecycle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1h
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(outcomesTotal, entryDuration)
}

// recordOutcome updates the batch metrics for one terminal outcome.
func recordOutcome(outcome clone.Outcome) {
	status := strings.ToLower(string(outcome.Status))
	outcomesTotal.WithLabelValues(status).Inc()
	if outcome.Elapsed > 0 {
		entryDuration.WithLabelValues(status).Observe(outcome.Elapsed.Seconds())
	}
}
