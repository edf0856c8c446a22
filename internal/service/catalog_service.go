package service

import (
	"context"

	"storefront-service/internal/models"
)

// CatalogStore is the read-only product surface exposed to clients
type CatalogStore interface {
	GetActiveProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CatalogService serves read-only product browsing. Catalog management
// happens elsewhere; this service never writes.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// ListProducts returns all active products
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.GetActiveProducts(ctx)
}

// GetProduct returns one active product by id
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}
