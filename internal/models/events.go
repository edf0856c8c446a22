package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeUserRegistered = "USER_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent is published after a checkout transaction commits.
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	Email      string          `json:"email"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []OrderLineData `json:"items"`
}

// OrderLineData represents one order line in events
type OrderLineData struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// UserRegisteredEvent is published after registration; the notification
// worker delivers the verification code it carries.
type UserRegisteredEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Code   string `json:"code"`
}
