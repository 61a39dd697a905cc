package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

// dutyFacts is everything the origin rules may look at. Lookups are done
// before evaluation so every rule is a pure function of the facts.
type dutyFacts struct {
	StandardRate  decimal.Decimal
	DefaultOrigin bool

	Preferential      domain.PreferentialRecord
	HasPreferential   bool
	Country           domain.Country
	CountryRegistered bool
}

type dutyDecision struct {
	AppliedRate decimal.Decimal
	Treatment   domain.DutyTreatment
	Note        string
	Rule        string
}

type dutyRule struct {
	Name    string
	Applies func(dutyFacts) bool
	Decide  func(dutyFacts) dutyDecision
}

// dutyRules is evaluated top to bottom; the first rule that applies wins.
//  1. default origin: standard rate
//  2. product-specific preferential record
//  3. sanction surcharge (negative reduction rate)
//  4. trade agreement without a product record: notice only
//  5. everything else: standard rate
var dutyRules = []dutyRule{
	{
		Name:    "erga_omnes",
		Applies: func(f dutyFacts) bool { return f.DefaultOrigin },
		Decide: func(f dutyFacts) dutyDecision {
			return dutyDecision{AppliedRate: f.StandardRate, Treatment: domain.TreatmentStandard}
		},
	},
	{
		Name:    "preferential",
		Applies: func(f dutyFacts) bool { return f.HasPreferential },
		Decide: func(f dutyFacts) dutyDecision {
			return dutyDecision{
				AppliedRate: f.Preferential.Rate,
				Treatment:   domain.TreatmentPreferential,
				Note:        "Preferential rate: a certificate of origin or supporting documentation is likely required.",
			}
		},
	},
	{
		Name:    "sanction",
		Applies: func(f dutyFacts) bool { return f.CountryRegistered && f.Country.IsSanctioned() },
		Decide: func(f dutyFacts) dutyDecision {
			surcharge := f.Country.ReductionRate.Abs()
			return dutyDecision{
				AppliedRate: f.StandardRate.Add(surcharge),
				Treatment:   domain.TreatmentSanction,
				Note:        fmt.Sprintf("Sanction surcharge of %s percentage points applies to goods from %s.", surcharge.String(), f.Country.Name),
			}
		},
	},
	{
		Name:    "agreement_notice",
		Applies: func(f dutyFacts) bool { return f.CountryRegistered && f.Country.HasAgreement() },
		Decide: func(f dutyFacts) dutyDecision {
			return dutyDecision{
				AppliedRate: f.StandardRate,
				Treatment:   domain.TreatmentAgreementNotice,
				Note:        fmt.Sprintf("%s: a preferential rate may exist for specific products; the standard rate is applied.", f.Country.AgreementType),
			}
		},
	},
	{
		Name:    "standard",
		Applies: func(dutyFacts) bool { return true },
		Decide: func(f dutyFacts) dutyDecision {
			return dutyDecision{AppliedRate: f.StandardRate, Treatment: domain.TreatmentStandard}
		},
	},
}

func evaluateDutyRules(facts dutyFacts) dutyDecision {
	for _, rule := range dutyRules {
		if rule.Applies(facts) {
			decision := rule.Decide(facts)
			decision.Rule = rule.Name
			return decision
		}
	}
	return dutyDecision{AppliedRate: facts.StandardRate, Treatment: domain.TreatmentStandard, Rule: "standard"}
}
