package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

// ResolutionMetrics counts engine outcomes. It is shared by every binary that
// serves resolutions.
type ResolutionMetrics struct {
	resolutionsTotal *prometheus.CounterVec
	treatmentTotal   *prometheus.CounterVec
	matchLevelTotal  *prometheus.CounterVec
	vatSourceTotal   *prometheus.CounterVec
}

func newResolutionMetrics() *ResolutionMetrics {
	return &ResolutionMetrics{
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tariff",
				Name:      "resolutions_total",
				Help:      "Total resolution attempts by outcome.",
			},
			[]string{"service", "outcome"},
		),
		treatmentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tariff",
				Subsystem: "duty",
				Name:      "treatment_total",
				Help:      "Completed resolutions by applied duty treatment.",
			},
			[]string{"service", "treatment"},
		),
		matchLevelTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tariff",
				Subsystem: "duty",
				Name:      "match_level_total",
				Help:      "Completed resolutions by the code level that produced the standard rate.",
			},
			[]string{"service", "level"},
		),
		vatSourceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tariff",
				Subsystem: "vat",
				Name:      "source_total",
				Help:      "Completed resolutions by VAT source.",
			},
			[]string{"service", "source"},
		),
	}
}

func (m *ResolutionMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.resolutionsTotal, m.treatmentTotal, m.matchLevelTotal, m.vatSourceTotal}
}

func (m *ResolutionMetrics) RecordResolution(service string, resolution *domain.Resolution, err error) {
	outcome := ResolutionOutcome(resolution, err)
	m.resolutionsTotal.WithLabelValues(service, outcome).Inc()
	if outcome != string(domain.StatusComplete) {
		return
	}

	result := resolution.Result
	m.treatmentTotal.WithLabelValues(service, string(result.Duty.Treatment)).Inc()
	m.matchLevelTotal.WithLabelValues(service, strconv.Itoa(result.Duty.MatchedLevel)).Inc()
	m.vatSourceTotal.WithLabelValues(service, string(result.VAT.Source)).Inc()
}

func ResolutionOutcome(resolution *domain.Resolution, err error) string {
	if err != nil {
		switch kind := domain.KindOf(err); kind {
		case domain.ErrInvalidCode, domain.ErrInvalidInput, domain.ErrNoTariffFound:
			return domain.KindName(kind)
		default:
			return "error"
		}
	}
	if resolution == nil {
		return "error"
	}
	if resolution.Status == domain.StatusComplete && resolution.Result == nil {
		return "error"
	}
	return string(resolution.Status)
}
