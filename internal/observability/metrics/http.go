package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	*ResolutionMetrics

	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	batchItems      *prometheus.HistogramVec
	rejectedTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "path", "method", "code"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tariff",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "path", "method"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tariff",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tariff",
			Subsystem: "http",
			Name:      "batch_items",
			Help:      "Distribution of items per batch request.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"service", "endpoint"},
	)
	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected by traffic control.",
		},
		[]string{"service", "reason"},
	)

	resolution := newResolutionMetrics()
	registry.MustRegister(requestTotal, requestDuration, requestInFlight, batchItems, rejectedTotal)
	registry.MustRegister(resolution.collectors()...)

	return &HTTPServerMetrics{
		ResolutionMetrics: resolution,
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		batchItems:        batchItems,
		rejectedTotal:     rejectedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Middleware instruments next with one promhttp chain per known route so the
// path label never grows past knownPaths.
func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	chains := make(map[string]http.Handler, len(knownPaths)+1)
	for path := range knownPaths {
		chains[path] = m.instrument(service, path, next)
	}
	chains[otherPath] = m.instrument(service, otherPath, next)

	return promhttp.InstrumentHandlerInFlight(m.requestInFlight, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chains[normalizePath(r.URL.Path)].ServeHTTP(w, r)
	}))
}

func (m *HTTPServerMetrics) instrument(service, path string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"service": service, "path": path}
	return promhttp.InstrumentHandlerCounter(
		m.requestTotal.MustCurryWith(labels),
		promhttp.InstrumentHandlerDuration(m.requestDuration.MustCurryWith(labels), next),
	)
}

var knownPaths = map[string]bool{
	"/healthz":                 true,
	"/metrics":                 true,
	"/v1/tariffs/resolve":      true,
	"/v1/tariffs/batch":        true,
	"/v1/tariffs/batch/export": true,
	"/v1/tariffs/compare":      true,
	"/v1/countries":            true,
}

const otherPath = "other"

func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return otherPath
}

func (m *HTTPServerMetrics) RecordBatchSize(service, endpoint string, items int) {
	m.batchItems.WithLabelValues(service, endpoint).Observe(float64(items))
}

func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.rejectedTotal.WithLabelValues(service, reason).Inc()
}
