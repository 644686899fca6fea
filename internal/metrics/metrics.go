// Package metrics exposes Prometheus instrumentation for the fetch path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder wraps the Prometheus collectors. A nil *Recorder is a no-op, so
// tests can skip registry setup entirely.
type Recorder struct {
	fetches   *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
	lastPrice *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

// New registers the collectors on the default registry. Call once per process.
func New() *Recorder {
	return &Recorder{
		fetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biasboard_fetch_total",
				Help: "Completed fetch attempts by symbol, source and outcome",
			},
			[]string{"symbol", "source", "outcome"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biasboard_cache_hits_total",
				Help: "Fetches served from the in-memory TTL cache",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "biasboard_last_price",
				Help: "Last fetched closing price for a symbol",
			},
			[]string{"symbol"},
		),
		duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biasboard_fetch_duration_seconds",
				Help:    "Wall time of upstream fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

// RecordFetch counts one settled fetch attempt.
func (r *Recorder) RecordFetch(symbol, source, outcome string) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(symbol, source, outcome).Inc()
}

// RecordCacheHit counts one cache-served lookup.
func (r *Recorder) RecordCacheHit(symbol string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(symbol).Inc()
}

// RecordLastPrice records the most recent closing price.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordDuration records upstream fetch latency in seconds.
func (r *Recorder) RecordDuration(source string, seconds float64) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(source).Observe(seconds)
}
