package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

// ResolveUseCase turns a classification code, customs value and origin into
// duty, VAT and alerts. It holds no state besides the catalog handle.
type ResolveUseCase struct {
	catalog ports.TariffCatalog
}

func NewResolveUseCase(catalog ports.TariffCatalog) *ResolveUseCase {
	return &ResolveUseCase{catalog: catalog}
}

func (uc *ResolveUseCase) Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
	code, err := normalizeCode(req.Code)
	if err != nil {
		return nil, err
	}
	if req.CIFValue.IsNegative() {
		return nil, fmt.Errorf("%w: cif value must not be negative", domain.ErrInvalidInput)
	}
	country := normalizeCountry(req.Country)

	if len(code) < fullCodeLength {
		signal, err := uc.checkCompleteness(ctx, req.Code, code)
		if err != nil {
			return nil, err
		}
		if signal != nil {
			return domain.Incomplete(signal), nil
		}
	}

	duty, err := findMostSpecific(ctx, paddedAncestors(padCode(code)), uc.catalog.FindStandardDuty)
	if err != nil {
		return nil, storeError("find standard duty", err)
	}
	if !duty.Found {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoTariffFound, padCode(code))
	}
	matched := duty.Key
	standardRate := duty.Record.Rate

	facts, err := uc.collectDutyFacts(ctx, matched, country)
	if err != nil {
		return nil, err
	}
	facts.StandardRate = standardRate
	decision := evaluateDutyRules(facts)

	description, err := describeCode(ctx, uc.catalog, matched)
	if err != nil {
		return nil, storeError("describe code", err)
	}

	vat, err := resolveVAT(ctx, uc.catalog, matched)
	if err != nil {
		return nil, storeError("resolve vat", err)
	}

	alerts, err := uc.alertsFor(ctx, matched, country)
	if err != nil {
		return nil, err
	}

	money := computeAmounts(req.CIFValue, standardRate, decision.AppliedRate, vat.Rate)

	return domain.Complete(&domain.CalculationResult{
		MatchedCode: matched,
		Description: description,
		CIFValue:    req.CIFValue,
		Country:     countryInfo(country, facts.Country, facts.CountryRegistered),
		Duty: domain.DutyBreakdown{
			StandardRate:   standardRate,
			AppliedRate:    decision.AppliedRate,
			Amount:         money.Duty,
			StandardAmount: money.StandardDuty,
			Savings:        money.Savings,
			Treatment:      decision.Treatment,
			Note:           decision.Note,
			MatchedLevel:   duty.Level,
		},
		VAT: domain.VATBreakdown{
			Rate:   vat.Rate,
			Type:   vat.Type,
			Amount: money.VAT,
			Source: vat.Source,
		},
		CustomsBase: money.CustomsBase,
		Total:       money.Total,
		Alerts:      alerts,
	}), nil
}

// checkCompleteness returns a signal when the prefix matches more than one
// full code, nil when resolution may proceed.
func (uc *ResolveUseCase) checkCompleteness(ctx context.Context, original, prefix string) (*domain.IncompleteCodeSignal, error) {
	records, err := uc.catalog.ScanStandardDuties(ctx, prefix)
	if err != nil {
		return nil, storeError("scan standard duties", err)
	}

	distinct := distinctByCode(records)
	if len(distinct) <= 1 {
		return nil, nil
	}

	candidates := make([]domain.CodeCandidate, 0, len(distinct))
	for _, record := range distinct {
		description, err := nearestDescription(ctx, uc.catalog, record.Code)
		if err != nil {
			return nil, storeError("describe candidate", err)
		}
		candidates = append(candidates, domain.CodeCandidate{
			Code:         record.Code,
			StandardRate: record.Rate,
			Description:  description,
		})
	}
	return &domain.IncompleteCodeSignal{OriginalCode: original, Candidates: candidates}, nil
}

func (uc *ResolveUseCase) collectDutyFacts(ctx context.Context, matched, country string) (dutyFacts, error) {
	if isDefaultOrigin(country) {
		return dutyFacts{DefaultOrigin: true}, nil
	}

	preferential, hasPreferential, err := uc.catalog.FindPreferential(ctx, matched, country)
	if err != nil {
		return dutyFacts{}, storeError("find preferential", err)
	}
	record, registered, err := uc.catalog.FindCountry(ctx, country)
	if err != nil {
		return dutyFacts{}, storeError("find country", err)
	}

	return dutyFacts{
		Preferential:      preferential,
		HasPreferential:   hasPreferential,
		Country:           record,
		CountryRegistered: registered,
	}, nil
}

func (uc *ResolveUseCase) alertsFor(ctx context.Context, matched, country string) ([]domain.Alert, error) {
	records, err := uc.catalog.ListAlerts(ctx, matched)
	if err != nil {
		return nil, storeError("list alerts", err)
	}
	if len(records) == 0 {
		return []domain.Alert{}, nil
	}

	var exclusions []domain.ExclusionRecord
	if !isDefaultOrigin(country) {
		exclusions, err = uc.catalog.ListExclusions(ctx, matched, country)
		if err != nil {
			return nil, storeError("list exclusions", err)
		}
	}
	return filterAlerts(records, exclusions, country), nil
}

func distinctByCode(records []domain.DutyRecord) []domain.DutyRecord {
	seen := make(map[string]bool, len(records))
	out := make([]domain.DutyRecord, 0, len(records))
	for _, record := range records {
		if seen[record.Code] {
			continue
		}
		seen[record.Code] = true
		out = append(out, record)
	}
	return out
}

func storeError(operation string, err error) error {
	slog.Error("catalog_lookup_failed", "operation", operation, "error", err)
	return domain.WrapError(domain.ErrDataStore, operation, err)
}
