package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uitest",
		Name:      "tool_calls_total",
		Help:      "Tool calls by tool and result.",
	}, []string{"tool", "result"})
	metricCallSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "uitest",
		Name:      "tool_call_seconds",
		Help:      "Tool call latency, session log write included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})
)

func observe(tool string, isError bool, elapsed time.Duration) {
	result := "ok"
	if isError {
		result = "error"
	}
	metricCalls.WithLabelValues(tool, result).Inc()
	metricCallSeconds.WithLabelValues(tool).Observe(elapsed.Seconds())
}
