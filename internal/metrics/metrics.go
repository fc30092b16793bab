// Package metrics holds the Prometheus collectors of the content service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Writes counts successful collection writes by collection and operation.
	Writes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalyst",
		Name:      "content_writes_total",
		Help:      "Successful content collection writes.",
	}, []string{"collection", "op"})

	// Conflicts counts compare-and-swap attempts that lost to a concurrent write.
	Conflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalyst",
		Name:      "content_write_conflicts_total",
		Help:      "Collection writes retried after a concurrent modification.",
	}, []string{"collection"})

	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalyst",
		Name:      "content_parse_errors_total",
		Help:      "Persisted collection values that failed to decode.",
	}, []string{"collection"})

	Renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalyst",
		Name:      "render_surface_total",
		Help:      "Rendered surfaces.",
	}, []string{"surface"})

	MissingTargets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalyst",
		Name:      "render_missing_target_total",
		Help:      "Render calls whose target does not exist on the page.",
	}, []string{"target"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
