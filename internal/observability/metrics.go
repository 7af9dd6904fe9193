package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	BulletinsConsumed prometheus.Counter
	BulletinsProduced prometheus.Counter
	TransformErrors   prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Parse diagnostics surfaced as metrics.
	ParseIssues *prometheus.CounterVec // labels: section, severity

	// Bulletin fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error,not_found}
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss}
	FetchDuration prometheus.Histogram
	FetchEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BulletinsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "areafc_etl",
			Name:      "bulletins_consumed_total",
			Help:      "Total bulletins read from the source topic.",
		}),
		BulletinsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "areafc_etl",
			Name:      "bulletins_produced_total",
			Help:      "Total parsed bulletins written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "areafc_etl",
			Name:      "transform_errors_total",
			Help:      "Total transformation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "areafc_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "areafc_etl",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "areafc_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ParseIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "areafc_etl",
			Name:      "parse_issues_total",
			Help:      "Parse diagnostics by bulletin section and severity.",
		}, []string{"section", "severity"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "areafc_etl",
			Name:      "fetch_requests_total",
			Help:      "Bulletin fetch requests by outcome.",
		}, []string{"outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "areafc_etl",
			Name:      "fetch_cache_total",
			Help:      "Bulletin fetch cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "areafc_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Bulletin fetch request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		FetchEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "areafc_etl",
			Name:      "fetch_enabled",
			Help:      "1 when missing bulletin text is fetched from the upstream source, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.BulletinsConsumed,
		m.BulletinsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ParseIssues,
		m.FetchRequests,
		m.FetchCache,
		m.FetchDuration,
		m.FetchEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BulletinsConsumed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "areafc_etl", Name: "bulletins_consumed_total"}),
		BulletinsProduced:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "areafc_etl", Name: "bulletins_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "areafc_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "areafc_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "areafc_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "areafc_etl", Name: "batch_processing_duration_seconds"}),
		ParseIssues:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "areafc_etl", Name: "parse_issues_total"}, []string{"section", "severity"}),
		FetchRequests:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "areafc_etl", Name: "fetch_requests_total"}, []string{"outcome"}),
		FetchCache:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "areafc_etl", Name: "fetch_cache_total"}, []string{"result"}),
		FetchDuration:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "areafc_etl", Name: "fetch_duration_seconds"}),
		FetchEnabled:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "areafc_etl", Name: "fetch_enabled"}),
	}
}
