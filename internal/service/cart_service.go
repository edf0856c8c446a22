package service

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartStore is the store surface the cart service depends on
type CartStore interface {
	GetOrCreateCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	GetOrCreateCartBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetCartItemByProduct(ctx context.Context, cartID, productID int64) (*models.CartItem, error)
	GetCartItemInCart(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	UpsertCartItem(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error)
	SetCartItemQuantity(ctx context.Context, itemID int64, quantity int) (*models.CartItem, error)
	DeleteCartItem(ctx context.Context, cartID, itemID int64) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// CartService resolves carts and manages their line items
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CartLineView is one cart line with its product and computed subtotal
type CartLineView struct {
	ID       int64           `json:"id"`
	Product  models.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartView is the full cart snapshot returned to clients
type CartView struct {
	ID         int64           `json:"id"`
	Items      []CartLineView  `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

// ResolveCart finds or creates the single cart belonging to an identity.
func (s *CartService) ResolveCart(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	if identity.IsAuthenticated() {
		return s.store.GetOrCreateCartByUserID(ctx, identity.UserID)
	}
	if identity.SessionKey == "" {
		return nil, fmt.Errorf("anonymous identity has no session key")
	}
	return s.store.GetOrCreateCartBySessionKey(ctx, identity.SessionKey)
}

// AddItem adds a product to the identity's cart, merging with an existing
// line for the same product. The stock check is increment-aware: the
// requested quantity plus whatever is already in the cart must fit in stock.
// Stock is not decremented here; checkout is the only writer.
func (s *CartService) AddItem(ctx context.Context, identity models.Identity, productID int64, quantity int) (*CartLineView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if quantity < 1 {
		return nil, models.NewValidationError("quantity must be at least 1")
	}

	cart, err := s.ResolveCart(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart: %w", err)
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetCartItemByProduct(ctx, cart.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart line: %w", err)
	}

	effectiveQuantity := quantity
	if existing != nil {
		effectiveQuantity += existing.Quantity
	}
	if product.Stock < effectiveQuantity {
		util.StockRejectionsTotal.WithLabelValues("cart_add").Inc()
		return nil, &models.InsufficientStockError{ProductName: product.Name, Available: product.Stock}
	}

	item, err := s.store.UpsertCartItem(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, err
	}

	util.CartItemsAddedTotal.Inc()
	s.logger.Debug("Cart item added",
		zap.Int64("cart_id", cart.ID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", item.Quantity))

	return lineView(item, product), nil
}

// UpdateItemQuantity overwrites a line's quantity after checking stock.
// Unlike AddItem this sets an absolute value rather than incrementing.
func (s *CartService) UpdateItemQuantity(ctx context.Context, identity models.Identity, itemID int64, quantity int) (*CartLineView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItemQuantity")
	defer span.End()

	if quantity < 1 {
		return nil, models.NewValidationError("quantity must be at least 1")
	}

	cart, err := s.ResolveCart(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart: %w", err)
	}

	item, err := s.store.GetCartItemInCart(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		util.StockRejectionsTotal.WithLabelValues("cart_update").Inc()
		return nil, &models.InsufficientStockError{ProductName: product.Name, Available: product.Stock}
	}

	updated, err := s.store.SetCartItemQuantity(ctx, item.ID, quantity)
	if err != nil {
		return nil, err
	}
	return lineView(updated, product), nil
}

// RemoveItem deletes one line from the identity's cart
func (s *CartService) RemoveItem(ctx context.Context, identity models.Identity, itemID int64) error {
	cart, err := s.ResolveCart(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to resolve cart: %w", err)
	}
	return s.store.DeleteCartItem(ctx, cart.ID, itemID)
}

// GetCart returns the identity's cart snapshot with per-line subtotals and
// the running totals.
func (s *CartService) GetCart(ctx context.Context, identity models.Identity) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	cart, err := s.ResolveCart(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart: %w", err)
	}

	items, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}

	view := &CartView{
		ID:         cart.ID,
		Items:      make([]CartLineView, 0, len(items)),
		TotalPrice: decimal.Zero,
	}
	if len(items) == 0 {
		return view, nil
	}

	productIDs := make([]int64, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart products: %w", err)
	}
	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	for i := range items {
		product, ok := productMap[items[i].ProductID]
		if !ok {
			// Product deactivated or deleted since it was added; hide the line.
			continue
		}
		line := lineView(&items[i], product)
		view.Items = append(view.Items, *line)
		view.TotalPrice = view.TotalPrice.Add(line.Subtotal)
		view.TotalItems += items[i].Quantity
	}
	return view, nil
}

func lineView(item *models.CartItem, product *models.Product) *CartLineView {
	return &CartLineView{
		ID:       item.ID,
		Product:  *product,
		Quantity: item.Quantity,
		Subtotal: product.CurrentPrice().Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
}
