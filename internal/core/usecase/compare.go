package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

const defaultCompareMaxCountries = 20

type CompareUseCase struct {
	resolver     ports.TariffResolver
	maxCountries int
}

func NewCompareUseCase(resolver ports.TariffResolver, maxCountries int) *CompareUseCase {
	if maxCountries <= 0 {
		maxCountries = defaultCompareMaxCountries
	}
	return &CompareUseCase{resolver: resolver, maxCountries: maxCountries}
}

// CompareOrigins resolves code once per origin and orders the origins by
// total landed cost, cheapest first.
func (uc *CompareUseCase) CompareOrigins(
	ctx context.Context,
	code string,
	cifValue decimal.Decimal,
	countries []string,
) (*domain.Comparison, error) {
	origins := uniqueCountries(countries)
	if len(origins) > uc.maxCountries {
		return nil, fmt.Errorf("%w: %d origins requested, limit is %d", domain.ErrInvalidInput, len(origins), uc.maxCountries)
	}

	comparison := &domain.Comparison{Code: code, Status: domain.StatusComplete}
	for _, country := range origins {
		resolution, err := uc.resolver.Resolve(ctx, domain.ResolveRequest{Code: code, CIFValue: cifValue, Country: country})
		if err != nil {
			return nil, fmt.Errorf("compare origin %s: %w", country, err)
		}
		if resolution.Status == domain.StatusIncomplete {
			return &domain.Comparison{
				Code:       code,
				Status:     domain.StatusIncomplete,
				Incomplete: resolution.Incomplete,
			}, nil
		}

		result := resolution.Result
		comparison.Origins = append(comparison.Origins, domain.OriginComparison{
			Country: result.Country,
			Duty:    result.Duty,
			VAT:     result.VAT,
			Total:   result.Total,
		})
	}

	sort.SliceStable(comparison.Origins, func(i, j int) bool {
		a, b := comparison.Origins[i], comparison.Origins[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.LessThan(b.Total)
		}
		return a.Country.Code < b.Country.Code
	})
	return comparison, nil
}

func uniqueCountries(countries []string) []string {
	seen := make(map[string]bool, len(countries))
	out := make([]string, 0, len(countries))
	for _, raw := range countries {
		country := normalizeCountry(raw)
		if seen[country] {
			continue
		}
		seen[country] = true
		out = append(out, country)
	}
	if len(out) == 0 {
		out = append(out, domain.OriginErgaOmnes)
	}
	return out
}
