// Package metrics exports cache events to Prometheus.
package metrics

import (
	"time"

	"github.com/krisalay/request-cache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus implements types.Metrics with one counter per event.
// Separate caches use separate subsystems, e.g. "request" and "reference".
type Prometheus struct {
	HitsTotal       prometheus.Counter
	MissesTotal     prometheus.Counter
	StaleTotal      prometheus.Counter
	SupersededTotal prometheus.Counter
	FailuresTotal   prometheus.Counter
	EvictionsTotal  prometheus.Counter
	RefreshesTotal  prometheus.Counter

	FetchLatency prometheus.Histogram
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer, namespace, subsystem string) *Prometheus {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Prometheus{
		HitsTotal:       counter("hits_total", "Fetches served from a fresh cached value"),
		MissesTotal:     counter("misses_total", "Fetches that invoked the fetcher"),
		StaleTotal:      counter("stale_served_total", "Failed fetches answered with the last known value"),
		SupersededTotal: counter("superseded_total", "In-flight fetches cancelled by a newer call for the same key"),
		FailuresTotal:   counter("failures_total", "Failed fetches with no value to fall back on"),
		EvictionsTotal:  counter("evictions_total", "Entries dropped to respect capacity"),
		RefreshesTotal:  counter("refreshes_total", "Background refreshes scheduled by a hit"),

		FetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Fetcher latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

func (p *Prometheus) Hit()        { p.HitsTotal.Inc() }
func (p *Prometheus) Miss()       { p.MissesTotal.Inc() }
func (p *Prometheus) Stale()      { p.StaleTotal.Inc() }
func (p *Prometheus) Superseded() { p.SupersededTotal.Inc() }
func (p *Prometheus) Failure()    { p.FailuresTotal.Inc() }
func (p *Prometheus) Eviction()   { p.EvictionsTotal.Inc() }
func (p *Prometheus) Refresh()    { p.RefreshesTotal.Inc() }

func (p *Prometheus) Latency(d time.Duration) {
	p.FetchLatency.Observe(d.Seconds())
}
