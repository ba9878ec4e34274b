package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FetchMetrics records upstream call outcomes and cache behavior.
type FetchMetrics struct {
	duration    *prometheus.HistogramVec
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	batches     *prometheus.CounterVec
}

// NewFetchMetrics registers the fetch metrics on the provided registerer.
func NewFetchMetrics(reg prometheus.Registerer) *FetchMetrics {
	if reg == nil {
		return &FetchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream order source requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "response_cache_hits_total",
		Help: "Response cache hits.",
	}, []string{"endpoint"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "response_cache_misses_total",
		Help: "Response cache misses.",
	}, []string{"endpoint"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_store_refreshes_total",
		Help: "Order store refresh attempts by outcome.",
	}, []string{"outcome"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "detail_batches_total",
		Help: "Detail batch fetches by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, cacheHits, cacheMisses, refreshes, batches)
	return &FetchMetrics{
		duration:    duration,
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
		refreshes:   refreshes,
		batches:     batches,
	}
}

// ObserveRequest records one upstream round trip.
func (m *FetchMetrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// IncCacheHit counts a read served from the response cache.
func (m *FetchMetrics) IncCacheHit(endpoint string) {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

// IncCacheMiss counts a read that had to go upstream.
func (m *FetchMetrics) IncCacheMiss(endpoint string) {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

// IncRefresh counts a store refresh attempt.
func (m *FetchMetrics) IncRefresh(outcome string) {
	if m == nil || m.refreshes == nil {
		return
	}
	m.refreshes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncBatch counts a detail batch fetch.
func (m *FetchMetrics) IncBatch(outcome string) {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
