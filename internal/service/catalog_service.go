package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/models"
)

// ProductStore is the catalog read surface.
type ProductStore interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

// StockCache caches per-product available counts.
type StockCache interface {
	Get(ctx context.Context, productID string) (int, bool)
	Set(ctx context.Context, productID string, count int) error
	Invalidate(ctx context.Context, productID string) error
}

// CatalogService serves the storefront product listing with live stock
// counts. Counts are cached briefly so shop traffic does not scan the
// accounts table.
type CatalogService struct {
	products ProductStore
	accounts AccountStore
	stock    StockCache
}

// NewCatalogService constructs a CatalogService. stock may be nil, which
// disables count caching.
func NewCatalogService(products ProductStore, accounts AccountStore, stock StockCache) *CatalogService {
	return &CatalogService{products: products, accounts: accounts, stock: stock}
}

// ListProducts returns all active products with their available stock.
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.ProductStock, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.ProductStock, 0, len(products))
	for _, p := range products {
		count, err := s.availableCount(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.ProductStock{Product: p, Stock: count})
	}
	return result, nil
}

func (s *CatalogService) availableCount(ctx context.Context, productID string) (int, error) {
	if s.stock != nil {
		if count, ok := s.stock.Get(ctx, productID); ok {
			return count, nil
		}
	}

	count, err := s.accounts.CountAvailable(ctx, productID)
	if err != nil {
		return 0, err
	}

	if s.stock != nil {
		if err := s.stock.Set(ctx, productID, count); err != nil {
			log.Warn().Err(err).Str("product_id", productID).Msg("Stock cache write failed")
		}
	}
	return count, nil
}
