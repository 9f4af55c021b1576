package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
)

const (
	cacheKeyItems = "catalog:items"
	cacheKeyTaxes = "catalog:taxes"
)

// CatalogUseCase serves item and tax master data, caching the upstream
// catalogs so interactive line edits do not hammer the remote service.
type CatalogUseCase struct {
	source CatalogSource
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCatalogUseCase creates a new CatalogUseCase.
func NewCatalogUseCase(source CatalogSource, cache Cache, ttl time.Duration, logger zerolog.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Items returns the item catalog, from cache when fresh.
func (uc *CatalogUseCase) Items(ctx context.Context) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	if uc.fromCache(ctx, cacheKeyItems, &items) {
		return items, nil
	}

	items, err := uc.source.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching item catalog: %w", err)
	}

	uc.toCache(ctx, cacheKeyItems, items)
	return items, nil
}

// Taxes returns the tax rate catalog, from cache when fresh.
func (uc *CatalogUseCase) Taxes(ctx context.Context) ([]domain.TaxRate, error) {
	var taxes []domain.TaxRate
	if uc.fromCache(ctx, cacheKeyTaxes, &taxes) {
		return taxes, nil
	}

	taxes, err := uc.source.Taxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching tax catalog: %w", err)
	}

	uc.toCache(ctx, cacheKeyTaxes, taxes)
	return taxes, nil
}

// RateFor resolves an item reference to its catalog unit rate.
func (uc *CatalogUseCase) RateFor(ctx context.Context, itemRef string) (decimal.Decimal, error) {
	items, err := uc.Items(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	for _, item := range items {
		if item.Ref == itemRef {
			return item.UnitRate, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrUnknownItem, itemRef)
}

// TaxByID resolves a tax id to its catalog rate.
func (uc *CatalogUseCase) TaxByID(ctx context.Context, taxID string) (domain.TaxRate, error) {
	taxes, err := uc.Taxes(ctx)
	if err != nil {
		return domain.TaxRate{}, err
	}

	for _, tax := range taxes {
		if tax.ID == taxID {
			return tax, nil
		}
	}
	return domain.TaxRate{}, fmt.Errorf("%w: %s", domain.ErrUnknownTax, taxID)
}

// Invalidate drops both cached catalogs.
func (uc *CatalogUseCase) Invalidate(ctx context.Context) {
	for _, key := range []string{cacheKeyItems, cacheKeyTaxes} {
		if err := uc.cache.Delete(ctx, key); err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
		}
	}
}

// fromCache loads a cached catalog into dst. A miss, a read error or
// a stale encoding all report false and fall through to the source.
func (uc *CatalogUseCase) fromCache(ctx context.Context, key string, dst any) bool {
	data, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

func (uc *CatalogUseCase) toCache(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, data, uc.ttl); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
