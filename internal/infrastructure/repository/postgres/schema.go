package postgres

import (
	"context"
	"fmt"
)

const schemaLockID = int64(2026101801)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tariffs (
	code TEXT NOT NULL,
	origin TEXT NOT NULL DEFAULT 'ERGA OMNES',
	duty_rate NUMERIC(9,4) NOT NULL,
	PRIMARY KEY (code, origin)
);

CREATE INDEX IF NOT EXISTS idx_tariffs_origin_code ON tariffs(origin, code text_pattern_ops);

CREATE TABLE IF NOT EXISTS preferential_tariffs (
	code TEXT NOT NULL,
	country TEXT NOT NULL,
	duty_rate NUMERIC(9,4) NOT NULL,
	PRIMARY KEY (code, country)
);

CREATE TABLE IF NOT EXISTS countries (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	agreement_type TEXT NOT NULL DEFAULT '',
	reduction_rate NUMERIC(9,4) NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS descriptions (
	code TEXT PRIMARY KEY,
	text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vat_rates (
	code TEXT PRIMARY KEY,
	rate NUMERIC(9,4) NOT NULL,
	type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS measure_alerts (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL,
	alert_type TEXT NOT NULL DEFAULT '',
	short_text TEXT NOT NULL DEFAULT '',
	full_text TEXT NOT NULL DEFAULT '',
	measure_code TEXT NOT NULL DEFAULT '',
	priority SMALLINT NOT NULL DEFAULT 3,
	origin_code TEXT NOT NULL DEFAULT '',
	certificate TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_measure_alerts_code ON measure_alerts(code, priority);

CREATE TABLE IF NOT EXISTS measure_exclusions (
	code TEXT NOT NULL,
	measure_code TEXT NOT NULL,
	excluded_country TEXT NOT NULL,
	PRIMARY KEY (code, measure_code, excluded_country)
);
`

func (c *Catalog) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
