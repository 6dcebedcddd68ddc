package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk
// scoring pipeline.
type Metrics struct {
	RecordsRead    prometheus.Counter
	RecordsScored  prometheus.Counter
	RecordsDropped *prometheus.CounterVec // labels: reason={missing_age,missing_material}
	AgesRepaired   prometheus.Counter

	PipelineRunning prometheus.Gauge
	StageDuration   *prometheus.HistogramVec // labels: stage={repair,canonicalize,filter,score}

	// Reverse geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsRead,
		m.RecordsScored,
		m.RecordsDropped,
		m.AgesRepaired,
		m.PipelineRunning,
		m.StageDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry,
// avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sso_risk",
			Name:      "records_read_total",
			Help:      "Total spill records read from the input table.",
		}),
		RecordsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sso_risk",
			Name:      "records_scored_total",
			Help:      "Total records that survived filtering and received a risk score.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sso_risk",
			Name:      "records_dropped_total",
			Help:      "Records dropped before scoring, by reason.",
		}, []string{"reason"}),
		AgesRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sso_risk",
			Name:      "ages_repaired_total",
			Help:      "Age values corrected by the data quality repair rules.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sso_risk",
			Name:      "pipeline_running",
			Help:      "1 while a preprocessing run is in progress.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sso_risk",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each preprocessing stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"stage"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sso_risk",
			Name:      "geocode_requests_total",
			Help:      "Nominatim reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sso_risk",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sso_risk",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
