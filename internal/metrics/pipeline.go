package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mining_analytics",
		Subsystem: "pipeline",
		Name:      "cycles_total",
		Help:      "Count of collection-and-persist cycles.",
	}, []string{"status"})
	pipelineCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mining_analytics",
		Subsystem: "pipeline",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of collection-and-persist cycles.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 15, 30, 60, 120},
	}, []string{"status"})
)

// Pipeline tracks metrics for full collection cycles.
type Pipeline struct{}

// NewPipeline creates a Pipeline metrics collector.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// ObserveCycle records duration and status of one collection cycle.
func (m Pipeline) ObserveCycle(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	pipelineCyclesTotal.WithLabelValues(status).Inc()
	pipelineCycleDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}
