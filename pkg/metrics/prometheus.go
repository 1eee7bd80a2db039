package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	indexValue         prometheus.Gauge
	componentScore     *prometheus.GaugeVec
	componentAvailable *prometheus.GaugeVec
	calcDuration       prometheus.Histogram
	errorsTotal        *prometheus.CounterVec
	snapshotsPublished *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		indexValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "skyindex_index_value",
				Help: "Current composite index value",
			},
		),
		componentScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skyindex_component_score",
				Help: "Last score per index component",
			},
			[]string{"symbol"},
		),
		componentAvailable: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skyindex_component_available",
				Help: "Whether a component contributed to the last calculation",
			},
			[]string{"symbol"},
		),
		calcDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "skyindex_calculation_duration_seconds",
				Help:    "Duration of full index calculations in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skyindex_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		snapshotsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skyindex_snapshots_published_total",
				Help: "Snapshots delivered per backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordIndexValue records the latest composite value.
func (r *Recorder) RecordIndexValue(value float64) {
	r.indexValue.Set(value)
}

// RecordComponentScore records one component's score and availability.
func (r *Recorder) RecordComponentScore(symbol string, score float64, available bool) {
	r.componentScore.WithLabelValues(symbol).Set(score)
	v := 0.0
	if available {
		v = 1
	}
	r.componentAvailable.WithLabelValues(symbol).Set(v)
}

// RecordCalcDuration records a full calculation duration in seconds.
func (r *Recorder) RecordCalcDuration(seconds float64) {
	r.calcDuration.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSnapshotPublished records a snapshot delivery.
func (r *Recorder) RecordSnapshotPublished(backend string) {
	r.snapshotsPublished.WithLabelValues(backend).Inc()
}
