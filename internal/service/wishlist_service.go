package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// WishlistStore is the store surface the wishlist service depends on
type WishlistStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	GetWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error)
	CreateWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error)
	DeleteWishlistEntry(ctx context.Context, userID, productID int64) error
	GetWishlistByUserID(ctx context.Context, userID int64) ([]models.WishlistEntry, error)
}

// WishlistService manages the authenticated user's saved products
type WishlistService struct {
	store  WishlistStore
	logger *zap.Logger
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(store WishlistStore) *WishlistService {
	return &WishlistService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ToggleResult reports the outcome of a wishlist toggle
type ToggleResult struct {
	InWishlist bool                  `json:"is_in_wishlist"`
	Entry      *models.WishlistEntry `json:"entry,omitempty"`
}

// Toggle adds the product to the wishlist if absent, removes it if present.
// Removal is a normal outcome of the toggle, not an error.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID int64) (*ToggleResult, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetWishlistEntry(ctx, userID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist: %w", err)
	}

	if existing != nil {
		if err := s.store.DeleteWishlistEntry(ctx, userID, product.ID); err != nil {
			return nil, err
		}
		return &ToggleResult{InWishlist: false}, nil
	}

	entry, err := s.store.CreateWishlistEntry(ctx, userID, product.ID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{InWishlist: true, Entry: entry}, nil
}

// WishlistItemView is one wishlist entry with its product
type WishlistItemView struct {
	ID      int64          `json:"id"`
	Product models.Product `json:"product"`
	AddedAt time.Time      `json:"added_at"`
}

// List returns the user's wishlist with product details
func (s *WishlistService) List(ctx context.Context, userID int64) ([]WishlistItemView, error) {
	entries, err := s.store.GetWishlistByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist: %w", err)
	}
	if len(entries) == 0 {
		return []WishlistItemView{}, nil
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist products: %w", err)
	}
	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	views := make([]WishlistItemView, 0, len(entries))
	for _, e := range entries {
		product, ok := productMap[e.ProductID]
		if !ok {
			continue
		}
		views = append(views, WishlistItemView{
			ID:      e.ID,
			Product: *product,
			AddedAt: e.AddedAt,
		})
	}
	return views, nil
}
