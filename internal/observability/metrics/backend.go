package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// BackendMetrics observes the resilience executors guarding Postgres and NATS.
type BackendMetrics struct {
	service      string
	retriesTotal *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func NewBackendMetrics(service string, registerer prometheus.Registerer) *BackendMetrics {
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tariff",
			Subsystem: "backend",
			Name:      "retries_total",
			Help:      "Retried backend calls.",
		},
		[]string{"service", "backend", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tariff",
			Subsystem: "backend",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per backend (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "backend"},
	)
	if registerer != nil {
		registerer.MustRegister(retriesTotal, breakerState)
	}
	return &BackendMetrics{service: service, retriesTotal: retriesTotal, breakerState: breakerState}
}

func (m *BackendMetrics) ObserveRetry(backend, operation string, attempt int) {
	m.retriesTotal.WithLabelValues(m.service, backend, operation).Inc()
	slog.Warn("backend_retry", "backend", backend, "operation", operation, "attempt", attempt)
}

func (m *BackendMetrics) ObserveBreakerState(backend string, state gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, backend).Set(float64(state))
	slog.Warn("backend_breaker_state", "backend", backend, "state", state.String())
}
