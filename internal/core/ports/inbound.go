package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

// TariffResolver is the inbound contract for single duty/VAT resolution.
type TariffResolver interface {
	Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error)
}

// BatchResolver resolves many requests, isolating per-item failures.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, reqs []domain.ResolveRequest) ([]domain.BatchItem, error)
}

// OriginComparer resolves one code against several origins.
type OriginComparer interface {
	CompareOrigins(ctx context.Context, code string, cifValue decimal.Decimal, countries []string) (*domain.Comparison, error)
}

// CountryReader is the read model for trade-agreement metadata.
type CountryReader interface {
	ListCountries(ctx context.Context) ([]domain.Country, error)
}
