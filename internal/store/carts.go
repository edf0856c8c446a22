package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// GetOrCreateCartByUserID finds the single cart owned by a user, creating it
// on first access. Concurrent first accesses race on the unique user_id
// constraint; ON CONFLICT DO NOTHING lets the first writer win and the loser
// re-reads the surviving row.
func (s *Store) GetOrCreateCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart,
		"SELECT * FROM carts WHERE user_id = $1", userID)
	if err == nil {
		return &cart, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	if err := s.db.GetContext(ctx, &cart,
		"SELECT * FROM carts WHERE user_id = $1", userID); err != nil {
		return nil, fmt.Errorf("failed to re-read cart: %w", err)
	}
	return &cart, nil
}

// GetOrCreateCartBySessionKey is the anonymous counterpart of
// GetOrCreateCartByUserID, keyed by the session identifier with user_id NULL.
func (s *Store) GetOrCreateCartBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart,
		"SELECT * FROM carts WHERE session_key = $1", sessionKey)
	if err == nil {
		return &cart, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO carts (session_key) VALUES ($1) ON CONFLICT (session_key) DO NOTHING", sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	if err := s.db.GetContext(ctx, &cart,
		"SELECT * FROM carts WHERE session_key = $1", sessionKey); err != nil {
		return nil, fmt.Errorf("failed to re-read cart: %w", err)
	}
	return &cart, nil
}

// GetCartByUserID retrieves a user's cart without creating one. Returns nil
// when the user has no cart yet.
func (s *Store) GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart,
		"SELECT * FROM carts WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCartItems retrieves all items of a cart in insertion order
func (s *Store) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY id", cartID)
	return items, err
}

// GetCartItemByProduct retrieves the single line for a product in a cart.
// Returns nil when the product is not in the cart.
func (s *Store) GetCartItemByProduct(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetCartItemInCart retrieves one line by id, scoped to the given cart so a
// requester can never touch another identity's lines.
func (s *Store) GetCartItemInCart(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM cart_items WHERE id = $1 AND cart_id = $2", itemID, cartID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("cart item")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertCartItem inserts a line for (cart, product) or, if one already
// exists, adds the quantity to it. The unique constraint on
// (cart_id, product_id) makes the merge atomic, so two concurrent adds of the
// same product end up as one row with the summed quantity.
func (s *Store) UpsertCartItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error) {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING *`

	var item models.CartItem
	if err := s.db.GetContext(ctx, &item, query, cartID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return &item, nil
}

// SetCartItemQuantity overwrites a line's quantity
func (s *Store) SetCartItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item,
		"UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2 RETURNING *",
		quantity, itemID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("cart item")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return &item, nil
}

// DeleteCartItem removes one line from a cart
func (s *Store) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND cart_id = $2", itemID, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewNotFoundError("cart item")
	}
	return nil
}
