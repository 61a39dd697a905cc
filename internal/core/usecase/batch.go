package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
)

const defaultBatchMaxItems = 500

type BatchUseCase struct {
	resolver ports.TariffResolver
	maxItems int
}

func NewBatchUseCase(resolver ports.TariffResolver, maxItems int) *BatchUseCase {
	if maxItems <= 0 {
		maxItems = defaultBatchMaxItems
	}
	return &BatchUseCase{resolver: resolver, maxItems: maxItems}
}

// ResolveBatch resolves every item independently; a failed item is reported
// in place and never stops its siblings.
func (uc *BatchUseCase) ResolveBatch(ctx context.Context, reqs []domain.ResolveRequest) ([]domain.BatchItem, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: batch has no items", domain.ErrInvalidInput)
	}
	if len(reqs) > uc.maxItems {
		return nil, fmt.Errorf("%w: batch has %d items, limit is %d", domain.ErrInvalidInput, len(reqs), uc.maxItems)
	}

	items := make([]domain.BatchItem, 0, len(reqs))
	for i, req := range reqs {
		item := domain.BatchItem{Index: i, Request: req}
		if err := ctx.Err(); err != nil {
			item.Error = batchError(domain.WrapError(domain.ErrTemporary, "resolve batch", err))
			items = append(items, item)
			continue
		}

		resolution, err := uc.resolver.Resolve(ctx, req)
		if err != nil {
			item.Error = batchError(err)
		} else {
			item.Resolution = resolution
		}
		items = append(items, item)
	}
	return items, nil
}

func batchError(err error) *domain.BatchError {
	return &domain.BatchError{
		Kind:    domain.KindName(domain.KindOf(err)),
		Message: domain.PublicMessage(err),
	}
}
