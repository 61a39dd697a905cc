package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

type WorkerMetrics struct {
	*ResolutionMetrics

	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "worker",
			Name:      "requests_total",
			Help:      "Total resolve requests answered by status.",
		},
		[]string{"service", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tariff",
			Subsystem: "worker",
			Name:      "request_duration_seconds",
			Help:      "Resolve request handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tariff",
			Subsystem: "worker",
			Name:      "requests_in_flight",
			Help:      "Number of resolve requests being handled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	resolution := newResolutionMetrics()
	registry.MustRegister(requestTotal, requestDuration, requestInFlight)
	registry.MustRegister(resolution.collectors()...)

	return &WorkerMetrics{
		ResolutionMetrics: resolution,
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

// ObserveResolve runs resolve as one worker request: it tracks in-flight
// count and latency and records the resolution breakdown.
func (m *WorkerMetrics) ObserveResolve(
	service string,
	resolve func() (*domain.Resolution, error),
) (*domain.Resolution, error) {
	m.requestInFlight.Inc()
	defer m.requestInFlight.Dec()

	start := time.Now()
	resolution, err := resolve()
	status := requestStatus(err)

	m.requestTotal.WithLabelValues(service, status).Inc()
	m.requestDuration.WithLabelValues(service, status).Observe(time.Since(start).Seconds())
	m.RecordResolution(service, resolution, err)
	return resolution, err
}

// requestStatus separates caller mistakes from worker-side failures.
func requestStatus(err error) string {
	if err == nil {
		return "ok"
	}
	switch domain.KindOf(err) {
	case domain.ErrInvalidCode, domain.ErrInvalidInput, domain.ErrNoTariffFound:
		return "rejected"
	default:
		return "failed"
	}
}
