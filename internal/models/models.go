package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered customer account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        string    `db:"phone" json:"phone"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID            int64               `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Slug          string              `db:"slug" json:"slug"`
	Description   string              `db:"description" json:"description"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price" json:"discount_price"`
	Stock         int                 `db:"stock" json:"stock"`
	IsActive      bool                `db:"is_active" json:"is_active"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// CurrentPrice returns the discount price when set, otherwise the list price.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// Cart belongs to exactly one identity: a user id or an anonymous session key.
type Cart struct {
	ID         int64          `db:"id" json:"id"`
	UserID     sql.NullInt64  `db:"user_id" json:"user_id,omitempty"`
	SessionKey sql.NullString `db:"session_key" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// CartItem is a single line in a cart. At most one row exists per
// (cart, product) pair; repeat adds increase Quantity.
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	CartID    int64     `db:"cart_id" json:"cart_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WishlistEntry marks a product as saved by a user
type WishlistEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// Order is an immutable snapshot created by checkout. Contact fields are
// captured as typed at checkout time, independent of the user's profile.
type Order struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Status          string          `db:"status" json:"status"`
	FirstName       string          `db:"first_name" json:"first_name"`
	LastName        string          `db:"last_name" json:"last_name"`
	Phone           string          `db:"phone" json:"phone"`
	Email           string          `db:"email" json:"email"`
	DeliveryAddress string          `db:"delivery_address" json:"delivery_address"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"total_price"`
	IsPaid          bool            `db:"is_paid" json:"is_paid"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem carries denormalized snapshots of the product name and price at
// order-creation time. ProductID is nullable so deleting a product later does
// not break order history.
type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	ProductID   sql.NullInt64   `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

// Cost returns price x quantity for this line.
func (oi *OrderItem) Cost() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// Order statuses. Checkout only ever creates orders in StatusNew; the rest
// exist for downstream fulfilment tooling.
const (
	OrderStatusNew        = "new"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// Identity resolves which cart belongs to a requester. Exactly one of the two
// fields is set: UserID for authenticated users, SessionKey for anonymous ones.
type Identity struct {
	UserID     int64
	SessionKey string
}

// IsAuthenticated reports whether the identity belongs to a registered user.
func (id Identity) IsAuthenticated() bool {
	return id.UserID != 0
}
