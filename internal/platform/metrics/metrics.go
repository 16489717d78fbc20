// Package metrics owns the Prometheus registry of the service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated registry exposed on /metrics.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OptimizerRuns counts optimization runs by strategy and outcome.
	OptimizerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fleet_optimizer_runs_total", Help: "Optimization runs by strategy and outcome."},
		[]string{"strategy", "outcome"},
	)
	OptimizerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "fleet_optimizer_duration_seconds", Help: "Optimization run duration in seconds.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}},
		[]string{"strategy"},
	)
	// RouteDuration tracks the routing time of a single cluster.
	RouteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "fleet_route_duration_seconds", Help: "Per-vehicle routing duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"strategy"},
	)
	OrdersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fleet_orders_total", Help: "Orders seen by the optimizer by disposition."},
		[]string{"disposition"},
	)
	GeocodeCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "geocode_cache_lookups_total", Help: "Coordinate cache lookups by backend and result."},
		[]string{"backend", "result"},
	)
)

var regOnce sync.Once

// Register adds the collectors to Registry. It is safe to call more than
// once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OptimizerRuns)
		Registry.MustRegister(OptimizerDuration)
		Registry.MustRegister(RouteDuration)
		Registry.MustRegister(OrdersProcessed)
		Registry.MustRegister(GeocodeCacheLookups)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
