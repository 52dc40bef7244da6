package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PagesFetchedTotal   *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	LinkCacheHitsTotal  prometheus.Counter
	FrontierSize        prometheus.Gauge
	LevelDuration       prometheus.Histogram
	RacesTotal          *prometheus.CounterVec
	RacesInQueue        prometheus.Gauge
}

// New registers the application metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		PagesFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikiracer_pages_fetched_total",
				Help: "Total number of page fetch attempts.",
			},
			[]string{"status", "error_type"}, // status: success, failure
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wikiracer_fetch_duration_seconds",
				Help:    "Duration of page fetch and link extraction.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		LinkCacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wikiracer_link_cache_hits_total",
				Help: "Link extractions answered from the per-race cache.",
			},
		),
		FrontierSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wikiracer_frontier_size",
				Help: "Number of pages in the BFS level currently being expanded.",
			},
		),
		LevelDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wikiracer_level_duration_seconds",
				Help:    "Duration of a single BFS level.",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
			},
		),
		RacesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikiracer_races_total",
				Help: "Total number of finished races.",
			},
			[]string{"outcome"}, // found, not_found, failed
		),
		RacesInQueue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wikiracer_races_in_queue",
				Help: "Current number of races waiting in the queue.",
			},
		),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func (m *Metrics) ObserveFetch(errorType string, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if errorType != "" {
		status = "failure"
	}
	m.PagesFetchedTotal.WithLabelValues(status, errorType).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) IncLinkCacheHits() {
	if m == nil {
		return
	}
	m.LinkCacheHitsTotal.Inc()
}

func (m *Metrics) SetFrontierSize(n int) {
	if m == nil {
		return
	}
	m.FrontierSize.Set(float64(n))
}

func (m *Metrics) ObserveLevel(d time.Duration) {
	if m == nil {
		return
	}
	m.LevelDuration.Observe(d.Seconds())
}

func (m *Metrics) IncRaces(outcome string) {
	if m == nil {
		return
	}
	m.RacesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetRacesInQueue(n int64) {
	if m == nil {
		return
	}
	m.RacesInQueue.Set(float64(n))
}
