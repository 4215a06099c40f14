// Package metrics exposes batch outcome counters on the status server's
// /metrics endpoint, so long verification batches can be watched from CI
// dashboards.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the batch counters on a private registry, so parallel App
// instances in tests never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	UnitsVerified prometheus.Counter
	UnitsFailed   prometheus.Counter
	UnitsSkipped  prometheus.Counter
	Invocations   *prometheus.CounterVec
}

// New creates a metrics set backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		UnitsVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofgrid_units_verified_total",
			Help: "Units whose verification chain was rebuilt and passed.",
		}),
		UnitsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofgrid_units_failed_total",
			Help: "Units whose verification chain failed.",
		}),
		UnitsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "proofgrid_units_skipped_total",
			Help: "Units skipped because their sentinel was fresh.",
		}),
		Invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgrid_external_invocations_total",
			Help: "External process invocations by phase.",
		}, []string{"phase"}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
