// Package metrics defines the Prometheus collectors for index builds,
// searches and the session lifecycle, and exposes an HTTP handler for
// scraping. Every recording method is safe on a nil *Metrics so the search
// core can run without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search strategies used as the "strategy" label.
const (
	StrategyIndex     = "index"
	StrategyRelevance = "relevance"
	StrategyAutofill  = "autofill"
)

// Build outcomes used as the "status" label.
const (
	BuildOK        = "ok"
	BuildFailed    = "failed"
	BuildDiscarded = "discarded"
)

// Metrics holds all Prometheus collectors for vaultsearch.
type Metrics struct {
	IndexBuildsTotal   *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram
	IndexedEntries     prometheus.Gauge
	IndexTerms         prometheus.Gauge
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount *prometheus.HistogramVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	SessionUnlocked    prometheus.Gauge
}

// New creates the collectors and registers them with reg, or with the
// default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultsearch_index_builds_total",
				Help: "Index builds by outcome (ok, failed, discarded).",
			},
			[]string{"status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vaultsearch_index_build_duration_seconds",
				Help:    "Time to build an index from a corpus snapshot.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		IndexedEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vaultsearch_indexed_entries",
				Help: "Entries in the currently published index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vaultsearch_index_terms",
				Help: "Distinct tokens in the currently published index.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultsearch_queries_total",
				Help: "Queries by strategy and result type (hit, zero_result, locked).",
			},
			[]string{"strategy", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultsearch_query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"strategy"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultsearch_query_results",
				Help:    "Number of entries returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"strategy"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vaultsearch_cache_hits_total",
				Help: "Query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vaultsearch_cache_misses_total",
				Help: "Query cache misses.",
			},
		),
		SessionUnlocked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vaultsearch_session_unlocked",
				Help: "1 while a decrypted corpus is indexed, 0 when locked.",
			},
		),
	}

	reg.MustRegister(
		m.IndexBuildsTotal,
		m.IndexBuildDuration,
		m.IndexedEntries,
		m.IndexTerms,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SessionUnlocked,
	)

	return m
}

// ObserveBuild records one build attempt. entries and terms only update the
// gauges for successful builds.
func (m *Metrics) ObserveBuild(status string, d time.Duration, entries, terms int) {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.WithLabelValues(status).Inc()
	if status != BuildOK {
		return
	}
	m.IndexBuildDuration.Observe(d.Seconds())
	m.IndexedEntries.Set(float64(entries))
	m.IndexTerms.Set(float64(terms))
}

// ObserveSearch records a completed query.
func (m *Metrics) ObserveSearch(strategy string, d time.Duration, results int) {
	if m == nil {
		return
	}
	resultType := "hit"
	if results == 0 {
		resultType = "zero_result"
	}
	m.SearchQueriesTotal.WithLabelValues(strategy, resultType).Inc()
	m.SearchLatency.WithLabelValues(strategy).Observe(d.Seconds())
	m.SearchResultsCount.WithLabelValues(strategy).Observe(float64(results))
}

// ObserveLocked records a query refused because no corpus is unlocked.
func (m *Metrics) ObserveLocked(strategy string) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(strategy, "locked").Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
}

// SetUnlocked flips the session gauge; locking also zeroes the index gauges.
func (m *Metrics) SetUnlocked(unlocked bool) {
	if m == nil {
		return
	}
	if unlocked {
		m.SessionUnlocked.Set(1)
		return
	}
	m.SessionUnlocked.Set(0)
	m.IndexedEntries.Set(0)
	m.IndexTerms.Set(0)
}

// Handler returns the scrape handler for g, or for the default gatherer
// when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
