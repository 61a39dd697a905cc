package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

type amounts struct {
	StandardDuty decimal.Decimal
	Duty         decimal.Decimal
	Savings      decimal.Decimal
	CustomsBase  decimal.Decimal
	VAT          decimal.Decimal
	Total        decimal.Decimal
}

// percentOf is exact: dividing by 100 is a decimal shift, never a rounding.
func percentOf(value, rate decimal.Decimal) decimal.Decimal {
	return value.Mul(rate).Shift(-2)
}

func computeAmounts(cif, standardRate, appliedRate, vatRate decimal.Decimal) amounts {
	standardDuty := percentOf(cif, standardRate)
	duty := percentOf(cif, appliedRate)
	customsBase := cif.Add(duty)
	vat := percentOf(customsBase, vatRate)

	return amounts{
		StandardDuty: standardDuty,
		Duty:         duty,
		Savings:      decimal.Max(decimal.Zero, standardDuty.Sub(duty)),
		CustomsBase:  customsBase,
		VAT:          vat,
		Total:        customsBase.Add(vat),
	}
}

func countryInfo(code string, country domain.Country, registered bool) domain.CountryInfo {
	switch {
	case isDefaultOrigin(code):
		return domain.CountryInfo{Code: domain.OriginErgaOmnes, Name: "Erga omnes", ReductionRate: decimal.Zero}
	case !registered:
		return domain.CountryInfo{Code: code, Name: code, ReductionRate: decimal.Zero}
	default:
		return domain.CountryInfo{
			Code:          country.Code,
			Name:          country.Name,
			Agreement:     country.AgreementType,
			ReductionRate: country.ReductionRate,
			Notes:         country.Notes,
		}
	}
}
