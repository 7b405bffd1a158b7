// Package metrics provides Prometheus metrics for the featured pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wikitrends"

// Metrics groups the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	FetchResults     *prometheus.CounterVec
	ResolverAttempts prometheus.Histogram
	EnrichDrops      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Featured cache lookups by result",
			},
			[]string{"result"},
		),
		FetchResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_results_total",
				Help:      "Featured fetches by language and status",
			},
			[]string{"language", "status"},
		),
		ResolverAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolver_attempts",
				Help:      "Pageviews requests needed per date resolution",
				Buckets:   []float64{1, 2, 3, 4, 6, 8, 11},
			},
		),
		EnrichDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrich_drops_total",
				Help:      "Pages left out of featured lists by reason",
			},
			[]string{"reason"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.CacheLookups, m.FetchResults, m.ResolverAttempts, m.EnrichDrops)
	}
	return m
}

// CacheLookup counts a hit or a miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// FetchResult counts a terminal status.
func (m *Metrics) FetchResult(language, status string) {
	if m == nil {
		return
	}
	m.FetchResults.WithLabelValues(language, status).Inc()
}

// Resolved observes the request count of one resolution.
func (m *Metrics) Resolved(attempts int) {
	if m == nil {
		return
	}
	m.ResolverAttempts.Observe(float64(attempts))
}

// Dropped counts a page excluded from a list.
func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.EnrichDrops.WithLabelValues(reason).Inc()
}
