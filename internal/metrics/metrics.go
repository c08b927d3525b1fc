// Package metrics exposes Prometheus counters for representation caching.
//
// Counters are registered on a caller supplied registerer rather than the
// global default, so several scenes (and tests) can coexist in one process.
// A nil *Cache is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "netscheme"

// Cache groups the representation cache counters
type Cache struct {
	EntityHits       prometheus.Counter
	EntityMisses     prometheus.Counter
	ConnectionHits   prometheus.Counter
	ConnectionMisses prometheus.Counter
	Clears           prometheus.Counter
	Rescales         *prometheus.CounterVec
	Warnings         *prometheus.CounterVec
}

// NewCache creates and registers the cache counters on reg
func NewCache(reg prometheus.Registerer) *Cache {
	factory := promauto.With(reg)
	return &Cache{
		EntityHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entity_hits_total",
			Help:      "Entity representation lookups served from cache",
		}),
		EntityMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entity_misses_total",
			Help:      "Entity representations built by the factory",
		}),
		ConnectionHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "connection_hits_total",
			Help:      "Connection representation lookups served from cache",
		}),
		ConnectionMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "connection_misses_total",
			Help:      "Connection representations built by the factory",
		}),
		Clears: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "clears_total",
			Help:      "Wholesale cache invalidations",
		}),
		Rescales: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scale",
			Name:      "rescales_total",
			Help:      "Growth events of a tracked maximum",
		}, []string{"kind"}),
		Warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "represent",
			Name:      "defaulted_properties_total",
			Help:      "Expected properties replaced by a default",
		}, []string{"property"}),
	}
}

// EntityHit records an entity cache hit
func (c *Cache) EntityHit() {
	if c != nil {
		c.EntityHits.Inc()
	}
}

// EntityMiss records an entity cache miss
func (c *Cache) EntityMiss() {
	if c != nil {
		c.EntityMisses.Inc()
	}
}

// ConnectionHit records a connection cache hit
func (c *Cache) ConnectionHit() {
	if c != nil {
		c.ConnectionHits.Inc()
	}
}

// ConnectionMiss records a connection cache miss
func (c *Cache) ConnectionMiss() {
	if c != nil {
		c.ConnectionMisses.Inc()
	}
}

// Clear records a wholesale invalidation
func (c *Cache) Clear() {
	if c != nil {
		c.Clears.Inc()
	}
}

// Rescale records a growth event for the named tracked quantity
func (c *Cache) Rescale(kind string) {
	if c != nil {
		c.Rescales.WithLabelValues(kind).Inc()
	}
}

// Defaulted records a missing property replaced by its default
func (c *Cache) Defaulted(property string) {
	if c != nil {
		c.Warnings.WithLabelValues(property).Inc()
	}
}
