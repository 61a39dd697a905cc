package domain

import "github.com/shopspring/decimal"

// OriginErgaOmnes marks the standard duty that applies to every origin.
const OriginErgaOmnes = "ERGA OMNES"

// NoAgreement is the agreement_type of countries without a trade agreement.
const NoAgreement = "no agreement"

type DutyRecord struct {
	Code   string          `json:"code" yaml:"code"`
	Origin string          `json:"origin" yaml:"origin"`
	Rate   decimal.Decimal `json:"rate" yaml:"rate"`
}

type PreferentialRecord struct {
	Code    string          `json:"code" yaml:"code"`
	Country string          `json:"country" yaml:"country"`
	Rate    decimal.Decimal `json:"rate" yaml:"rate"`
}

// Country carries trade-agreement metadata. A negative ReductionRate is a
// sanction surcharge added to the standard rate.
type Country struct {
	Code          string          `json:"code" yaml:"code"`
	Name          string          `json:"name" yaml:"name"`
	AgreementType string          `json:"agreement_type" yaml:"agreement_type"`
	ReductionRate decimal.Decimal `json:"reduction_rate" yaml:"reduction_rate"`
	Notes         string          `json:"notes" yaml:"notes"`
}

func (c Country) IsSanctioned() bool {
	return c.ReductionRate.IsNegative()
}

func (c Country) HasAgreement() bool {
	return c.AgreementType != "" && c.AgreementType != NoAgreement
}

type DescriptionRecord struct {
	Code string `json:"code" yaml:"code"`
	Text string `json:"text" yaml:"text"`
}

type VATType string

const (
	VATGeneral      VATType = "general"
	VATReduced      VATType = "reducido"
	VATSuperReduced VATType = "superreducido"
)

type VATRecord struct {
	Code string          `json:"code" yaml:"code"`
	Rate decimal.Decimal `json:"rate" yaml:"rate"`
	Type VATType         `json:"type" yaml:"type"`
}

type AlertRecord struct {
	Code        string `json:"code" yaml:"code"`
	AlertType   string `json:"alert_type" yaml:"alert_type"`
	ShortText   string `json:"short_text" yaml:"short_text"`
	FullText    string `json:"full_text" yaml:"full_text"`
	MeasureCode string `json:"measure_code" yaml:"measure_code"`
	Priority    int    `json:"priority" yaml:"priority"`
	OriginCode  string `json:"origin_code" yaml:"origin_code"`
	Certificate string `json:"certificate" yaml:"certificate"`
}

type ExclusionRecord struct {
	Code            string `json:"code" yaml:"code"`
	MeasureCode     string `json:"measure_code" yaml:"measure_code"`
	ExcludedCountry string `json:"excluded_country" yaml:"excluded_country"`
}

// CatalogSnapshot is a complete copy of the reference tables, used to seed or
// replace a catalog in one step.
type CatalogSnapshot struct {
	Tariffs             []DutyRecord         `yaml:"tariffs"`
	PreferentialTariffs []PreferentialRecord `yaml:"preferential_tariffs"`
	Countries           []Country            `yaml:"countries"`
	Descriptions        []DescriptionRecord  `yaml:"descriptions"`
	VATRates            []VATRecord          `yaml:"vat_rates"`
	MeasureAlerts       []AlertRecord        `yaml:"measure_alerts"`
	MeasureExclusions   []ExclusionRecord    `yaml:"measure_exclusions"`
}
