package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

var (
	vatGeneralRate      = decimal.NewFromInt(21)
	vatReducedRate      = decimal.NewFromInt(10)
	vatSuperReducedRate = decimal.NewFromInt(4)
)

// Basic foodstuffs taxed at the super-reduced rate.
var superReducedFoodChapters = map[int]bool{1: true, 2: true, 3: true, 4: true, 7: true, 8: true, 10: true, 11: true}

type vatResolution struct {
	Rate   decimal.Decimal
	Type   domain.VATType
	Source domain.VATSource
}

// resolveVAT never fails for lack of data: the chapter rule is the total
// fallback once every table level has missed.
func resolveVAT(ctx context.Context, catalog ports.TariffCatalog, code string) (vatResolution, error) {
	found, err := findMostSpecific(ctx, paddedAncestors(code), catalog.FindVAT)
	if err != nil {
		return vatResolution{}, err
	}
	if found.Found {
		vatType := found.Record.Type
		if vatType == "" {
			vatType = domain.VATGeneral
		}
		return vatResolution{Rate: found.Record.Rate, Type: vatType, Source: domain.VATSourceTable}, nil
	}
	rate, vatType := chapterVATRule(code)
	return vatResolution{Rate: rate, Type: vatType, Source: domain.VATSourceChapterRule}, nil
}

func chapterVATRule(code string) (decimal.Decimal, domain.VATType) {
	if strings.HasPrefix(code, "9021") {
		return vatSuperReducedRate, domain.VATSuperReduced
	}

	chapter, err := strconv.Atoi(code[:2])
	if err != nil {
		return vatGeneralRate, domain.VATGeneral
	}

	switch {
	case chapter >= 1 && chapter <= 24:
		if superReducedFoodChapters[chapter] {
			return vatSuperReducedRate, domain.VATSuperReduced
		}
		return vatReducedRate, domain.VATReduced
	case chapter == 30, chapter == 49:
		return vatSuperReducedRate, domain.VATSuperReduced
	case chapter == 68, chapter == 69:
		return vatReducedRate, domain.VATReduced
	default:
		return vatGeneralRate, domain.VATGeneral
	}
}
