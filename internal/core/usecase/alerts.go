package usecase

import (
	"sort"
	"strings"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

const maxAlerts = 5

const alertOriginAll = "ALL"

// filterAlerts drops alerts whose measure is excluded for the country and
// alerts scoped to a different ISO country. Anything it cannot classify is
// kept so regulatory information is never hidden silently.
func filterAlerts(records []domain.AlertRecord, exclusions []domain.ExclusionRecord, country string) []domain.Alert {
	excluded := make(map[string]bool, len(exclusions))
	for _, ex := range exclusions {
		if ex.MeasureCode == "" || !strings.EqualFold(strings.TrimSpace(ex.ExcludedCountry), country) {
			continue
		}
		excluded[ex.MeasureCode] = true
	}

	ordered := make([]domain.AlertRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	out := make([]domain.Alert, 0, maxAlerts)
	for _, record := range ordered {
		if len(out) == maxAlerts {
			break
		}
		if record.MeasureCode != "" && excluded[record.MeasureCode] {
			continue
		}
		if !alertAppliesToOrigin(record.OriginCode, country) {
			continue
		}
		out = append(out, domain.Alert{
			Code:        record.Code,
			ShortText:   record.ShortText,
			FullText:    record.FullText,
			Priority:    record.Priority,
			OriginCode:  record.OriginCode,
			Certificate: record.Certificate,
		})
	}
	return out
}

func alertAppliesToOrigin(originCode, country string) bool {
	origin := strings.ToUpper(strings.TrimSpace(originCode))
	switch {
	case origin == "" || origin == alertOriginAll:
		return true
	case isNumeric(origin):
		// Agreement/group identifier; membership is not resolvable here.
		return true
	case isISOAlpha2(origin):
		return origin == country
	default:
		return true
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isISOAlpha2(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
