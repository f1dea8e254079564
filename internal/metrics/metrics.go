package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the engine's collectors on a private prometheus registry.
// All record methods are safe on a nil *Registry so components can run
// without metrics in tests.
type Registry struct {
	reg *prometheus.Registry

	EnrichedItems   *prometheus.CounterVec
	CacheWrites     *prometheus.CounterVec
	SchemaFallbacks *prometheus.CounterVec
	VeganConflicts  prometheus.Counter
	PartialFailures *prometheus.CounterVec
	CostLatencySec  *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	enriched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prepcost_enriched_menu_items_total",
		Help: "Menu items enriched, by outcome (ok, degraded).",
	}, []string{"outcome"})
	cacheWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prepcost_cache_writes_total",
		Help: "Background cache writes, by outcome (ok, error, dropped).",
	}, []string{"task", "outcome"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prepcost_schema_fallbacks_total",
		Help: "Menu item queries retried with a narrower shape, by rung reached.",
	}, []string{"rung"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prepcost_vegan_conflicts_total",
		Help: "Vegan verdicts overridden because milk or egg allergens were present.",
	})
	partial := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prepcost_partial_failures_total",
		Help: "Collaborator failures absorbed inside a larger aggregate.",
	}, []string{"stage"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prepcost_cost_calculation_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	r.MustRegister(enriched, cacheWrites, fallbacks, conflicts, partial, latency)
	return &Registry{
		reg:             r,
		EnrichedItems:   enriched,
		CacheWrites:     cacheWrites,
		SchemaFallbacks: fallbacks,
		VeganConflicts:  conflicts,
		PartialFailures: partial,
		CostLatencySec:  latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) EnrichedItem(outcome string) {
	if r == nil {
		return
	}
	r.EnrichedItems.WithLabelValues(outcome).Inc()
}

func (r *Registry) CacheWrite(task, outcome string) {
	if r == nil {
		return
	}
	r.CacheWrites.WithLabelValues(task, outcome).Inc()
}

func (r *Registry) SchemaFallback(rung string) {
	if r == nil {
		return
	}
	r.SchemaFallbacks.WithLabelValues(rung).Inc()
}

func (r *Registry) VeganConflict() {
	if r == nil {
		return
	}
	r.VeganConflicts.Inc()
}

func (r *Registry) PartialFailure(stage string) {
	if r == nil {
		return
	}
	r.PartialFailures.WithLabelValues(stage).Inc()
}

func (r *Registry) ObserveCost(kind string, seconds float64) {
	if r == nil {
		return
	}
	r.CostLatencySec.WithLabelValues(kind).Observe(seconds)
}
