package completion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uitest",
		Name:      "action_completions_total",
		Help:      "Completion waits by how they ended.",
	}, []string{"outcome"})
	metricWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "uitest",
		Name:      "action_wait_seconds",
		Help:      "Time spent waiting for actions to settle, settle delay included.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
	})
)

func observe(o Outcome, elapsed time.Duration) {
	metricOutcomes.WithLabelValues(o.String()).Inc()
	metricWaitSeconds.Observe(elapsed.Seconds())
}
