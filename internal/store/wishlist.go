package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// GetWishlistEntry retrieves a user's wishlist entry for a product. Returns
// nil when the product is not wishlisted.
func (s *Store) GetWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error) {
	var entry models.WishlistEntry
	err := s.db.GetContext(ctx, &entry,
		"SELECT * FROM wishlist WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateWishlistEntry adds a product to a user's wishlist
func (s *Store) CreateWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error) {
	query := `
		INSERT INTO wishlist (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING *`

	var entry models.WishlistEntry
	err := s.db.GetContext(ctx, &entry, query, userID, productID)
	if err == sql.ErrNoRows {
		// Lost a race with a concurrent toggle; read the winner.
		existing, getErr := s.GetWishlistEntry(ctx, userID, productID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, fmt.Errorf("wishlist entry vanished after conflict")
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create wishlist entry: %w", err)
	}
	return &entry, nil
}

// DeleteWishlistEntry removes a product from a user's wishlist
func (s *Store) DeleteWishlistEntry(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist entry: %w", err)
	}
	return nil
}

// GetWishlistByUserID retrieves all of a user's wishlist entries
func (s *Store) GetWishlistByUserID(ctx context.Context, userID int64) ([]models.WishlistEntry, error) {
	var entries []models.WishlistEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM wishlist WHERE user_id = $1 ORDER BY added_at DESC", userID)
	return entries, err
}
