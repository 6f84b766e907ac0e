// Package observability holds the Prometheus metrics of the map service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quakemap"

// Metrics holds counters, histograms and gauges for feed loading and layer composition.
type Metrics struct {
	FeedRequests    *prometheus.CounterVec   // labels: feed, outcome={success,error}
	FeedDuration    *prometheus.HistogramVec // labels: feed
	FeaturesSkipped *prometheus.CounterVec   // labels: feed
	LayerPrimitives *prometheus.GaugeVec     // labels: layer
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedDuration,
		m.FeaturesSkipped,
		m.LayerPrimitives,
	)
	return m
}

// NewMetricsForTesting creates metrics that are not registered anywhere,
// so tests can build as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Duration of a feed fetch including decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"feed"}),
		FeaturesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_skipped_total",
			Help:      "Malformed features skipped during layer composition.",
		}, []string{"feed"}),
		LayerPrimitives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layer_primitives",
			Help:      "Number of primitives held by each overlay layer group.",
		}, []string{"layer"}),
	}
}
