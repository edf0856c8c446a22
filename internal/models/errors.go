package models

import (
	"errors"
	"fmt"
)

// Error codes returned in API error payloads
const (
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse is the wire shape of every error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// InsufficientStockError is returned when a requested (or aggregated) quantity
// exceeds the available stock, either at cart-add time or during checkout
// re-validation. It names the product so the caller can adjust the cart.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available", e.ProductName, e.Available)
}

// ValidationError reports a recoverable problem with the submitted data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a referenced cart, product, order or user
// does not exist for this identity.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NewNotFoundError creates a not-found error for the named resource.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidCredentials is returned on login with an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailNotVerified is returned on login before the email has been confirmed.
	ErrEmailNotVerified = errors.New("email is not verified")

	// ErrVerificationCodeNotFound is returned when no code is stored for an
	// email, either because it expired or was never issued.
	ErrVerificationCodeNotFound = errors.New("verification code expired or not found")
)
