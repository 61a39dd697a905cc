package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/repository/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixtureSnapshot() domain.CatalogSnapshot {
	return domain.CatalogSnapshot{
		Tariffs: []domain.DutyRecord{
			{Code: "0702000000", Origin: domain.OriginErgaOmnes, Rate: dec("8.8")},
			{Code: "8471300000", Origin: domain.OriginErgaOmnes, Rate: dec("0")},
			{Code: "8471410000", Origin: domain.OriginErgaOmnes, Rate: dec("0")},
			{Code: "8471490000", Origin: domain.OriginErgaOmnes, Rate: dec("0")},
			{Code: "6109100010", Origin: domain.OriginErgaOmnes, Rate: dec("12")},
			{Code: "6109100090", Origin: domain.OriginErgaOmnes, Rate: dec("12")},
			{Code: "3004900000", Origin: domain.OriginErgaOmnes, Rate: dec("0")},
			{Code: "7318000000", Origin: domain.OriginErgaOmnes, Rate: dec("5")},
			{Code: "7318150000", Origin: domain.OriginErgaOmnes, Rate: dec("3.7")},
			{Code: "9021000000", Origin: domain.OriginErgaOmnes, Rate: dec("0")},
			{Code: "2204210000", Origin: domain.OriginErgaOmnes, Rate: dec("1")},
		},
		PreferentialTariffs: []domain.PreferentialRecord{
			{Code: "0702000000", Country: "MA", Rate: dec("0")},
			{Code: "7318150000", Country: "RU", Rate: dec("1")},
		},
		Countries: []domain.Country{
			{Code: "MA", Name: "Morocco", AgreementType: "EU-Morocco Association Agreement", ReductionRate: dec("0"), Notes: "EUR.1"},
			{Code: "RU", Name: "Russia", AgreementType: domain.NoAgreement, ReductionRate: dec("-15")},
			{Code: "CN", Name: "China", AgreementType: domain.NoAgreement, ReductionRate: dec("0")},
			{Code: "KR", Name: "South Korea", AgreementType: "EU-Korea FTA", ReductionRate: dec("0")},
		},
		Descriptions: []domain.DescriptionRecord{
			{Code: "07", Text: "Edible vegetables"},
			{Code: "0702", Text: "Tomatoes, fresh or chilled"},
			{Code: "070200", Text: "Tomatoes, fresh or chilled"},
			{Code: "0702000000", Text: "Tomatoes, fresh or chilled"},
			{Code: "84", Text: "Machinery"},
			{Code: "8471", Text: "Automatic data-processing machines"},
			{Code: "847130", Text: "Portable, not more than 10 kg"},
			{Code: "8471300000", Text: "Laptops"},
			{Code: "847141", Text: "Comprising a CPU and input/output unit"},
			{Code: "61", Text: "Knitted apparel"},
			{Code: "6109100010", Text: "Cotton T-shirts, men's"},
		},
		VATRates: []domain.VATRecord{
			{Code: "8471300000", Rate: dec("21"), Type: domain.VATGeneral},
			{Code: "2204000000", Rate: dec("21"), Type: domain.VATGeneral},
		},
		MeasureAlerts: []domain.AlertRecord{
			{Code: "6109100010", ShortText: "AD", FullText: "Anti-dumping duty", MeasureCode: "552", Priority: 2, OriginCode: "CN"},
			{Code: "6109100010", ShortText: "SURV", FullText: "Surveillance", MeasureCode: "485", Priority: 1, OriginCode: "ALL"},
			{Code: "6109100010", ShortText: "FR", FullText: "French quota", MeasureCode: "122", Priority: 3, OriginCode: "FR"},
			{Code: "6109100010", ShortText: "GSP", FullText: "GSP group", MeasureCode: "142", Priority: 3, OriginCode: "2020"},
		},
		MeasureExclusions: []domain.ExclusionRecord{
			{Code: "6109100010", MeasureCode: "485", ExcludedCountry: "TR"},
		},
	}
}

func newCountingCatalog() *countingCatalog {
	return &countingCatalog{TariffCatalog: memory.New(fixtureSnapshot())}
}

func newFixtureUseCase() (*ResolveUseCase, *countingCatalog) {
	catalog := newCountingCatalog()
	return NewResolveUseCase(catalog), catalog
}

// countingCatalog records standard-duty keys and can fail a chosen method.
type countingCatalog struct {
	TariffCatalog *memory.Catalog

	mu         sync.Mutex
	dutyKeys   []string
	failMethod string
}

var errCatalogDown = errors.New("connection refused")

func (c *countingCatalog) FindStandardDuty(ctx context.Context, code string) (domain.DutyRecord, bool, error) {
	c.mu.Lock()
	c.dutyKeys = append(c.dutyKeys, code)
	c.mu.Unlock()
	if c.failMethod == "FindStandardDuty" {
		return domain.DutyRecord{}, false, errCatalogDown
	}
	return c.TariffCatalog.FindStandardDuty(ctx, code)
}

func (c *countingCatalog) ScanStandardDuties(ctx context.Context, prefix string) ([]domain.DutyRecord, error) {
	if c.failMethod == "ScanStandardDuties" {
		return nil, errCatalogDown
	}
	return c.TariffCatalog.ScanStandardDuties(ctx, prefix)
}

func (c *countingCatalog) FindPreferential(ctx context.Context, code, country string) (domain.PreferentialRecord, bool, error) {
	return c.TariffCatalog.FindPreferential(ctx, code, country)
}

func (c *countingCatalog) FindCountry(ctx context.Context, code string) (domain.Country, bool, error) {
	return c.TariffCatalog.FindCountry(ctx, code)
}

func (c *countingCatalog) ListCountries(ctx context.Context) ([]domain.Country, error) {
	return c.TariffCatalog.ListCountries(ctx)
}

func (c *countingCatalog) FindDescription(ctx context.Context, code string) (domain.DescriptionRecord, bool, error) {
	return c.TariffCatalog.FindDescription(ctx, code)
}

func (c *countingCatalog) FindVAT(ctx context.Context, code string) (domain.VATRecord, bool, error) {
	if c.failMethod == "FindVAT" {
		return domain.VATRecord{}, false, errCatalogDown
	}
	return c.TariffCatalog.FindVAT(ctx, code)
}

func (c *countingCatalog) ListAlerts(ctx context.Context, code string) ([]domain.AlertRecord, error) {
	return c.TariffCatalog.ListAlerts(ctx, code)
}

func (c *countingCatalog) ListExclusions(ctx context.Context, code, country string) ([]domain.ExclusionRecord, error) {
	return c.TariffCatalog.ListExclusions(ctx, code, country)
}
