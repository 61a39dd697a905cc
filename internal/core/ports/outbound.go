package ports

import (
	"context"
	"io"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

// TariffCatalog is the read-only reference data store. Find* methods report
// absence through the boolean, never through an error.
type TariffCatalog interface {
	FindStandardDuty(ctx context.Context, code string) (domain.DutyRecord, bool, error)
	// ScanStandardDuties returns standard-origin records whose code starts
	// with prefix, ordered by code.
	ScanStandardDuties(ctx context.Context, prefix string) ([]domain.DutyRecord, error)
	FindPreferential(ctx context.Context, code, country string) (domain.PreferentialRecord, bool, error)
	FindCountry(ctx context.Context, code string) (domain.Country, bool, error)
	ListCountries(ctx context.Context) ([]domain.Country, error)
	FindDescription(ctx context.Context, code string) (domain.DescriptionRecord, bool, error)
	FindVAT(ctx context.Context, code string) (domain.VATRecord, bool, error)
	// ListAlerts returns alerts for code ordered by ascending priority.
	ListAlerts(ctx context.Context, code string) ([]domain.AlertRecord, error)
	ListExclusions(ctx context.Context, code, country string) ([]domain.ExclusionRecord, error)
}

// BatchExporter renders batch results into a downloadable document.
type BatchExporter interface {
	ExportBatch(w io.Writer, items []domain.BatchItem) error
}
