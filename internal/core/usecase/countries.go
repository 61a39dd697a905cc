package usecase

import (
	"context"
	"sort"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

type CountryQueryUseCase struct {
	catalog ports.TariffCatalog
}

func NewCountryQueryUseCase(catalog ports.TariffCatalog) *CountryQueryUseCase {
	return &CountryQueryUseCase{catalog: catalog}
}

func (uc *CountryQueryUseCase) ListCountries(ctx context.Context) ([]domain.Country, error) {
	countries, err := uc.catalog.ListCountries(ctx)
	if err != nil {
		return nil, storeError("list countries", err)
	}
	sort.SliceStable(countries, func(i, j int) bool {
		return countries[i].Name < countries[j].Name
	})
	return countries, nil
}
