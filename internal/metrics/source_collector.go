package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mining_analytics",
		Subsystem: "source_collector",
		Name:      "fetches_total",
		Help:      "Count of data source fetch attempts.",
	}, []string{"source", "status"})
	sourceFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mining_analytics",
		Subsystem: "source_collector",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of data source fetches.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"source", "status"})
)

// SourceCollector tracks metrics for data source fetches.
type SourceCollector struct{}

// NewSourceCollector creates a SourceCollector metrics collector.
func NewSourceCollector() *SourceCollector {
	return &SourceCollector{}
}

// Observe records duration and status of one source fetch.
func (m SourceCollector) Observe(source string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if source == "" {
		source = "unknown"
	}

	sourceFetchesTotal.WithLabelValues(source, status).Inc()
	sourceFetchDuration.WithLabelValues(source, status).Observe(time.Since(started).Seconds())
}
