package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the chart service.
type Metrics struct {
	// Dataset loading.
	DatasetRows      prometheus.Gauge
	Loads            *prometheus.CounterVec // labels: outcome={success,error}
	CoercionWarnings prometheus.Counter

	// Render cycle.
	SelectionChanges prometheus.Counter
	Renders          prometheus.Counter
	RenderErrors     prometheus.Counter
	RenderDuration   prometheus.Histogram
	Markers          *prometheus.CounterVec // labels: op={enter,update,exit}

	// Sessions and frame publishing.
	ActiveSessions  prometheus.Gauge
	SessionsEvicted prometheus.Counter
	FramesPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

const namespace = "bubble_chart"

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetRows,
		m.Loads,
		m.CoercionWarnings,
		m.SelectionChanges,
		m.Renders,
		m.RenderErrors,
		m.RenderDuration,
		m.Markers,
		m.ActiveSessions,
		m.SessionsEvicted,
		m.FramesPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Observations in the loaded dataset.",
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		CoercionWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_coercion_warnings_total",
			Help:      "Numeric cells that could not be parsed and were treated as missing.",
		}),
		SelectionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_changes_total",
			Help:      "Accepted selection changes.",
		}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Completed filter-scale-render cycles.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Frames a rendering backend failed to apply.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a filter-scale-render cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		Markers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_total",
			Help:      "Markers reconciled by operation.",
		}, []string{"op"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Viewer sessions currently held in memory.",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions dropped because the registry was full.",
		}),
		FramesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_published_total",
			Help:      "Frames written to the frames topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_publish_errors_total",
			Help:      "Frames that could not be written to the frames topic.",
		}),
	}
}
