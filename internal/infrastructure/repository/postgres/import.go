package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

// ReplaceSnapshot swaps the whole catalog content in one transaction, so
// readers see either the previous or the new snapshot.
func (c *Catalog) ReplaceSnapshot(ctx context.Context, s domain.CatalogSnapshot) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
TRUNCATE tariffs, preferential_tariffs, countries, descriptions, vat_rates, measure_alerts, measure_exclusions
`); err != nil {
		return fmt.Errorf("truncate catalog: %w", err)
	}

	for _, t := range s.Tariffs {
		origin := t.Origin
		if origin == "" {
			origin = domain.OriginErgaOmnes
		}
		if err := exec(ctx, tx, "insert tariff", `
INSERT INTO tariffs (code, origin, duty_rate) VALUES ($1,$2,$3)
ON CONFLICT (code, origin) DO UPDATE SET duty_rate = EXCLUDED.duty_rate
`, t.Code, origin, t.Rate); err != nil {
			return err
		}
	}
	for _, p := range s.PreferentialTariffs {
		if err := exec(ctx, tx, "insert preferential tariff", `
INSERT INTO preferential_tariffs (code, country, duty_rate) VALUES ($1,$2,$3)
ON CONFLICT (code, country) DO UPDATE SET duty_rate = EXCLUDED.duty_rate
`, p.Code, strings.ToUpper(p.Country), p.Rate); err != nil {
			return err
		}
	}
	for _, country := range s.Countries {
		if err := exec(ctx, tx, "insert country", `
INSERT INTO countries (code, name, agreement_type, reduction_rate, notes) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, agreement_type = EXCLUDED.agreement_type,
	reduction_rate = EXCLUDED.reduction_rate, notes = EXCLUDED.notes
`, strings.ToUpper(country.Code), country.Name, country.AgreementType, country.ReductionRate, country.Notes); err != nil {
			return err
		}
	}
	for _, d := range s.Descriptions {
		if err := exec(ctx, tx, "insert description", `
INSERT INTO descriptions (code, text) VALUES ($1,$2)
ON CONFLICT (code) DO UPDATE SET text = EXCLUDED.text
`, d.Code, d.Text); err != nil {
			return err
		}
	}
	for _, v := range s.VATRates {
		if err := exec(ctx, tx, "insert vat rate", `
INSERT INTO vat_rates (code, rate, type) VALUES ($1,$2,$3)
ON CONFLICT (code) DO UPDATE SET rate = EXCLUDED.rate, type = EXCLUDED.type
`, v.Code, v.Rate, string(v.Type)); err != nil {
			return err
		}
	}
	for _, a := range s.MeasureAlerts {
		if err := exec(ctx, tx, "insert alert", `
INSERT INTO measure_alerts (code, alert_type, short_text, full_text, measure_code, priority, origin_code, certificate)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, a.Code, a.AlertType, a.ShortText, a.FullText, a.MeasureCode, a.Priority, a.OriginCode, a.Certificate); err != nil {
			return err
		}
	}
	for _, e := range s.MeasureExclusions {
		if err := exec(ctx, tx, "insert exclusion", `
INSERT INTO measure_exclusions (code, measure_code, excluded_country) VALUES ($1,$2,$3)
ON CONFLICT DO NOTHING
`, e.Code, e.MeasureCode, strings.ToUpper(e.ExcludedCountry)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

func exec(ctx context.Context, tx *sql.Tx, operation, query string, args ...any) error {
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}
