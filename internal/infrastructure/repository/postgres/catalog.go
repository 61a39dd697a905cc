package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/resilience"
)

// Catalog is the PostgreSQL TariffCatalog. Every query runs through the
// optional resilience executor; the engine itself never retries.
type Catalog struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewCatalog(db *sql.DB, executor *resilience.Executor) *Catalog {
	return &Catalog{db: db, executor: executor}
}

func (c *Catalog) FindStandardDuty(ctx context.Context, code string) (domain.DutyRecord, bool, error) {
	var record domain.DutyRecord
	found, err := c.queryOne(ctx, "catalog.find_standard_duty", func(ctx context.Context) error {
		return c.db.QueryRowContext(ctx, `
SELECT code, origin, duty_rate
FROM tariffs
WHERE code = $1 AND origin = $2
`, code, domain.OriginErgaOmnes).Scan(&record.Code, &record.Origin, &record.Rate)
	})
	return record, found, err
}

func (c *Catalog) ScanStandardDuties(ctx context.Context, prefix string) ([]domain.DutyRecord, error) {
	var out []domain.DutyRecord
	err := c.run(ctx, "catalog.scan_standard_duties", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `
SELECT code, origin, duty_rate
FROM tariffs
WHERE origin = $1 AND code LIKE $2
ORDER BY code
`, domain.OriginErgaOmnes, prefix+"%")
		if err != nil {
			return fmt.Errorf("scan standard duties: %w", err)
		}
		defer rows.Close()

		out = make([]domain.DutyRecord, 0)
		for rows.Next() {
			var record domain.DutyRecord
			if err := rows.Scan(&record.Code, &record.Origin, &record.Rate); err != nil {
				return fmt.Errorf("scan duty row: %w", err)
			}
			out = append(out, record)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate standard duties: %w", err)
		}
		return nil
	})
	return out, err
}

func (c *Catalog) FindPreferential(ctx context.Context, code, country string) (domain.PreferentialRecord, bool, error) {
	var record domain.PreferentialRecord
	found, err := c.queryOne(ctx, "catalog.find_preferential", func(ctx context.Context) error {
		return c.db.QueryRowContext(ctx, `
SELECT code, country, duty_rate
FROM preferential_tariffs
WHERE code = $1 AND country = $2
`, code, country).Scan(&record.Code, &record.Country, &record.Rate)
	})
	return record, found, err
}

func (c *Catalog) FindCountry(ctx context.Context, code string) (domain.Country, bool, error) {
	var country domain.Country
	found, err := c.queryOne(ctx, "catalog.find_country", func(ctx context.Context) error {
		return c.db.QueryRowContext(ctx, `
SELECT code, name, agreement_type, reduction_rate, notes
FROM countries
WHERE code = $1
`, code).Scan(&country.Code, &country.Name, &country.AgreementType, &country.ReductionRate, &country.Notes)
	})
	return country, found, err
}

func (c *Catalog) ListCountries(ctx context.Context) ([]domain.Country, error) {
	var out []domain.Country
	err := c.run(ctx, "catalog.list_countries", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `
SELECT code, name, agreement_type, reduction_rate, notes
FROM countries
ORDER BY name
`)
		if err != nil {
			return fmt.Errorf("list countries: %w", err)
		}
		defer rows.Close()

		out = make([]domain.Country, 0)
		for rows.Next() {
			var country domain.Country
			if err := rows.Scan(&country.Code, &country.Name, &country.AgreementType, &country.ReductionRate, &country.Notes); err != nil {
				return fmt.Errorf("scan country row: %w", err)
			}
			out = append(out, country)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate countries: %w", err)
		}
		return nil
	})
	return out, err
}

func (c *Catalog) FindDescription(ctx context.Context, code string) (domain.DescriptionRecord, bool, error) {
	var record domain.DescriptionRecord
	found, err := c.queryOne(ctx, "catalog.find_description", func(ctx context.Context) error {
		return c.db.QueryRowContext(ctx, `
SELECT code, text
FROM descriptions
WHERE code = $1
`, code).Scan(&record.Code, &record.Text)
	})
	return record, found, err
}

func (c *Catalog) FindVAT(ctx context.Context, code string) (domain.VATRecord, bool, error) {
	var record domain.VATRecord
	var vatType string
	found, err := c.queryOne(ctx, "catalog.find_vat", func(ctx context.Context) error {
		return c.db.QueryRowContext(ctx, `
SELECT code, rate, type
FROM vat_rates
WHERE code = $1
`, code).Scan(&record.Code, &record.Rate, &vatType)
	})
	record.Type = domain.VATType(vatType)
	return record, found, err
}

func (c *Catalog) ListAlerts(ctx context.Context, code string) ([]domain.AlertRecord, error) {
	var out []domain.AlertRecord
	err := c.run(ctx, "catalog.list_alerts", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `
SELECT code, alert_type, short_text, full_text, measure_code, priority, origin_code, certificate
FROM measure_alerts
WHERE code = $1
ORDER BY priority ASC, id ASC
`, code)
		if err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}
		defer rows.Close()

		out = make([]domain.AlertRecord, 0)
		for rows.Next() {
			var a domain.AlertRecord
			if err := rows.Scan(&a.Code, &a.AlertType, &a.ShortText, &a.FullText, &a.MeasureCode, &a.Priority, &a.OriginCode, &a.Certificate); err != nil {
				return fmt.Errorf("scan alert row: %w", err)
			}
			out = append(out, a)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate alerts: %w", err)
		}
		return nil
	})
	return out, err
}

func (c *Catalog) ListExclusions(ctx context.Context, code, country string) ([]domain.ExclusionRecord, error) {
	var out []domain.ExclusionRecord
	err := c.run(ctx, "catalog.list_exclusions", func(ctx context.Context) error {
		rows, err := c.db.QueryContext(ctx, `
SELECT code, measure_code, excluded_country
FROM measure_exclusions
WHERE code = $1 AND excluded_country = $2
`, code, country)
		if err != nil {
			return fmt.Errorf("list exclusions: %w", err)
		}
		defer rows.Close()

		out = make([]domain.ExclusionRecord, 0)
		for rows.Next() {
			var e domain.ExclusionRecord
			if err := rows.Scan(&e.Code, &e.MeasureCode, &e.ExcludedCountry); err != nil {
				return fmt.Errorf("scan exclusion row: %w", err)
			}
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate exclusions: %w", err)
		}
		return nil
	})
	return out, err
}

// queryOne runs a single-row lookup, reporting sql.ErrNoRows as not found.
func (c *Catalog) queryOne(ctx context.Context, operation string, scan func(context.Context) error) (bool, error) {
	found := false
	err := c.run(ctx, operation, func(ctx context.Context) error {
		err := scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			found = false
			return nil
		case err != nil:
			return fmt.Errorf("%s: %w", operation, err)
		default:
			found = true
			return nil
		}
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (c *Catalog) run(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
