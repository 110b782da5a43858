package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tracesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtg_traces_total",
			Help: "Total number of traces by terminal state.",
		},
		[]string{"state"},
	)

	traceFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gtg_trace_failures_total",
			Help: "Total number of traces that ended with an error.",
		},
	)

	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtg_records_total",
			Help: "Total number of features written, by feature type.",
		},
		[]string{"feature"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtg_propagations_total",
			Help: "Total number of SGP4 propagation calls by result status.",
		},
		[]string{"status"},
	)

	datelineSplitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gtg_dateline_splits_total",
			Help: "Total number of line segments split at the antimeridian.",
		},
	)

	traceDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gtg_trace_duration_seconds",
			Help:    "Wall time of one trace in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	tleFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtg_tle_fetches_total",
			Help: "Total number of element set downloads by result.",
		},
		[]string{"result"},
	)

	tleElementsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gtg_tle_elements_loaded",
			Help: "Number of element sets loaded for this run.",
		},
	)
)

func init() {
	prometheus.MustRegister(tracesTotal)
	prometheus.MustRegister(traceFailuresTotal)
	prometheus.MustRegister(recordsTotal)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(datelineSplitsTotal)
	prometheus.MustRegister(traceDurationSeconds)
	prometheus.MustRegister(tleFetchesTotal)
	prometheus.MustRegister(tleElementsLoaded)
}

// RecordTrace counts a finished trace and its duration.
func RecordTrace(state string, duration time.Duration) {
	tracesTotal.WithLabelValues(state).Inc()
	traceDurationSeconds.Observe(duration.Seconds())
}

// IncTraceFailures counts a trace that returned an error.
func IncTraceFailures() {
	traceFailuresTotal.Inc()
}

// AddRecords counts n written features of the given type.
func AddRecords(feature string, n int) {
	recordsTotal.WithLabelValues(feature).Add(float64(n))
}

// IncPropagations counts one propagation call.
func IncPropagations(status string) {
	propagationsTotal.WithLabelValues(status).Inc()
}

// IncDatelineSplits counts one split segment.
func IncDatelineSplits() {
	datelineSplitsTotal.Inc()
}

// IncTLEFetches counts one download attempt; result is "ok", "error" or
// "cached".
func IncTLEFetches(result string) {
	tleFetchesTotal.WithLabelValues(result).Inc()
}

// SetTLEElementsLoaded records how many element sets were loaded.
func SetTLEElementsLoaded(n int) {
	tleElementsLoaded.Set(float64(n))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
