package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutStore is the store surface the checkout service depends on
type CheckoutStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetOrderByID(ctx context.Context, userID, orderID int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	RunInTx(ctx context.Context, fn func(tx store.Tx) error) error
}

// OrderEventPublisher publishes order lifecycle events
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
}

// CheckoutService converts carts into orders
type CheckoutService struct {
	store          CheckoutStore
	eventPublisher OrderEventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, eventPublisher OrderEventPublisher) *CheckoutService {
	return &CheckoutService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CheckoutRequest carries the recipient contact data for an order. Email is
// optional and falls back to the user's profile email.
type CheckoutRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	DeliveryAddress string `json:"delivery_address"`
}

// OrderResponse is an order together with its lines
type OrderResponse struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// Checkout atomically converts the user's cart into an order. Inside one
// database transaction it creates the order header, re-reads every product
// under a row lock, validates stock, snapshots name and current price into
// order items, decrements stock, bulk-inserts the items, recomputes the
// total and clears the cart. Any failure rolls everything back: the cart is
// left untouched and no stock is decremented.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, req *CheckoutRequest) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	if err := validateContactInfo(req); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_contact").Inc()
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}

	cart, err := s.store.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if cart == nil {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.ErrEmptyCart
	}

	items, err := s.store.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart items: %w", err)
	}
	if len(items) == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.ErrEmptyCart
	}

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusNew,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Email:           email,
		DeliveryAddress: req.DeliveryAddress,
		TotalPrice:      decimal.Zero,
	}

	var orderItems []models.OrderItem

	err = s.store.RunInTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		total := decimal.Zero
		orderItems = make([]models.OrderItem, 0, len(items))

		for _, item := range items {
			// Fresh read under a row lock: stock may have changed since the
			// item was added, and concurrent checkouts must serialize here.
			product, err := tx.ProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}

			if product.Stock < item.Quantity {
				return &models.InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
				}
			}

			orderItem := models.OrderItem{
				OrderID:     order.ID,
				ProductID:   sql.NullInt64{Int64: product.ID, Valid: true},
				ProductName: product.Name,
				Price:       product.CurrentPrice(),
				Quantity:    item.Quantity,
			}
			orderItems = append(orderItems, orderItem)
			total = total.Add(orderItem.Cost())

			if err := tx.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.CreateOrderItems(ctx, orderItems); err != nil {
			return err
		}

		if err := tx.UpdateOrderTotal(ctx, order.ID, total); err != nil {
			return err
		}
		order.TotalPrice = total

		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		var stockErr *models.InsufficientStockError
		if errors.As(err, &stockErr) {
			util.CheckoutsFailedTotal.WithLabelValues("insufficient_stock").Inc()
			util.StockRejectionsTotal.WithLabelValues("checkout").Inc()
			s.logger.Warn("Checkout rejected: insufficient stock",
				zap.Int64("user_id", userID),
				zap.String("product", stockErr.ProductName),
				zap.Int("available", stockErr.Available))
		} else {
			util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.CheckoutsTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("total_price", order.TotalPrice.StringFixed(2)))

	s.publishOrderCreated(ctx, order, orderItems)

	return &OrderResponse{Order: order, Items: orderItems}, nil
}

// publishOrderCreated emits the post-commit event. Best effort: the order is
// already committed, so a publish failure is logged, never surfaced.
func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.eventPublisher == nil {
		return
	}

	lines := make([]models.OrderLineData, len(items))
	for i, item := range items {
		lines[i] = models.OrderLineData{
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:    order.ID,
		UserID:     order.UserID,
		Email:      order.Email,
		TotalPrice: order.TotalPrice,
		Items:      lines,
	}

	if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

// GetOrder retrieves one of the user's orders with its items
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID int64) (*OrderResponse, error) {
	order, err := s.store.GetOrderByID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResponse{Order: order, Items: items}, nil
}

// ListOrders retrieves the user's orders, newest first
func (s *CheckoutService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

func validateContactInfo(req *CheckoutRequest) error {
	switch {
	case req == nil:
		return models.NewValidationError("contact info is required")
	case req.FirstName == "":
		return models.NewValidationError("first_name is required")
	case req.LastName == "":
		return models.NewValidationError("last_name is required")
	case req.Phone == "":
		return models.NewValidationError("phone is required")
	case req.DeliveryAddress == "":
		return models.NewValidationError("delivery_address is required")
	}
	return nil
}
