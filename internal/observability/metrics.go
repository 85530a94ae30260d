package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for conversion runs.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: status={success,error}
	RunDuration   prometheus.Histogram
	FilesWritten  *prometheus.CounterVec // labels: kind={provider,sensor}
	RecordsParsed *prometheus.CounterVec // labels: kind={provider,sensor}

	// Storage and notification metrics.
	S3Operations  *prometheus.CounterVec // labels: op={download,upload,delete}, status={success,error}
	Notifications *prometheus.CounterVec // labels: sink={kafka,mqtt}, status={success,error}
}

// NewMetrics creates and registers all conversion metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usagecsv",
			Name:      "runs_total",
			Help:      "Conversion runs by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "usagecsv",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete download-convert-upload run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usagecsv",
			Name:      "files_written_total",
			Help:      "Output CSV files written by series kind.",
		}, []string{"kind"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usagecsv",
			Name:      "records_parsed_total",
			Help:      "Input rows parsed into series records by kind.",
		}, []string{"kind"}),
		S3Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usagecsv",
			Name:      "s3_operations_total",
			Help:      "Object storage operations by type and status.",
		}, []string{"op", "status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usagecsv",
			Name:      "notifications_total",
			Help:      "Completion notifications by sink and status.",
		}, []string{"sink", "status"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.FilesWritten,
		m.RecordsParsed,
		m.S3Operations,
		m.Notifications,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "usagecsv", Name: "runs_total"}, []string{"status"}),
		RunDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "usagecsv", Name: "run_duration_seconds"}),
		FilesWritten:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "usagecsv", Name: "files_written_total"}, []string{"kind"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "usagecsv", Name: "records_parsed_total"}, []string{"kind"}),
		S3Operations:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "usagecsv", Name: "s3_operations_total"}, []string{"op", "status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "usagecsv", Name: "notifications_total"}, []string{"sink", "status"}),
	}
}
