package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Tx is the set of operations available inside a checkout transaction. The
// sqlx implementation below backs it in production; tests substitute fakes.
type Tx interface {
	// ProductForUpdate re-reads a product under a row lock so concurrent
	// checkouts of the same product serialize on the stock check.
	ProductForUpdate(ctx context.Context, productID int64) (*models.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	ClearCart(ctx context.Context, cartID int64) error
}

// RunInTx executes fn inside a single database transaction. Any error from fn
// rolls the whole transaction back; the commit error is returned otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	txx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txx.Rollback()

	if err := fn(&sqlTx{tx: txx}); err != nil {
		return err
	}

	if err := txx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetProductByID retrieves an active product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND is_active = TRUE", id)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("product")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetActiveProducts retrieves all active products
func (s *Store) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active = TRUE ORDER BY id")
	return products, err
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// sqlTx implements Tx on top of a sqlx transaction.
type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) ProductForUpdate(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := t.tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 FOR UPDATE", productID)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("product")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}
	return &product, nil
}

func (t *sqlTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for product %d: %w", productID, err)
	}
	return nil
}

func (t *sqlTx) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, status, first_name, last_name, phone, email, delivery_address, total_price, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := t.tx.QueryRowxContext(ctx, query,
		order.UserID, order.Status, order.FirstName, order.LastName,
		order.Phone, order.Email, order.DeliveryAddress, order.TotalPrice, order.IsPaid,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (t *sqlTx) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
		VALUES (:order_id, :product_id, :product_name, :price, :quantity)`

	if _, err := t.tx.NamedExecContext(ctx, query, items); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET total_price = $1, updated_at = NOW() WHERE id = $2",
		total, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	return nil
}

func (t *sqlTx) ClearCart(ctx context.Context, cartID int64) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart %d: %w", cartID, err)
	}
	return nil
}
