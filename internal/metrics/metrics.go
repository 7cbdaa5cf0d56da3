// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nutrition_log"

// Metrics holds the service's collectors. A nil *Metrics records nothing,
// so packages can take one optionally.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	associationUpdates  *prometheus.CounterVec
	associationDuration *prometheus.HistogramVec
	associationPairs    *prometheus.CounterVec
	rebuilds            *prometheus.CounterVec

	backups *prometheus.CounterVec
}

// New registers the collectors on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),

		associationUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "associations",
			Name:      "updates_total",
			Help:      "Association updates by meal type and outcome (updated, skipped, error)",
		}, []string{"meal_type", "outcome"}),

		associationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "associations",
			Name:      "update_duration_seconds",
			Help:      "Association update latency in seconds, lock wait included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"meal_type"}),

		associationPairs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "associations",
			Name:      "pairs_incremented_total",
			Help:      "Food pair co-occurrence increments by meal type",
		}, []string{"meal_type"}),

		rebuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "associations",
			Name:      "rebuilds_total",
			Help:      "Association rebuilds by meal type and outcome",
		}, []string{"meal_type", "outcome"}),

		backups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "runs_total",
			Help:      "Backup runs by outcome",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAssociationUpdate records one update_for_meal call. pairs is the
// number of co-occurrence increments it made.
func (m *Metrics) ObserveAssociationUpdate(mealType, outcome string, pairs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.associationUpdates.WithLabelValues(mealType, outcome).Inc()
	m.associationDuration.WithLabelValues(mealType).Observe(elapsed.Seconds())
	if pairs > 0 {
		m.associationPairs.WithLabelValues(mealType).Add(float64(pairs))
	}
}

func (m *Metrics) ObserveRebuild(mealType string, err error) {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues(mealType, outcome(err)).Inc()
}

func (m *Metrics) ObserveBackup(err error) {
	if m == nil {
		return
	}
	m.backups.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
