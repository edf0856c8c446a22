package mailer

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVerificationEmail(t *testing.T) {
	subject, plainText, html := VerificationEmail("user@example.com", "123456")

	assert.Equal(t, "Your verification code", subject)
	assert.Contains(t, plainText, "123456")
	assert.Contains(t, plainText, "user@example.com")
	assert.Contains(t, html, "123456")
}

func TestOrderConfirmationEmail(t *testing.T) {
	event := &models.OrderCreatedEvent{
		OrderID:    7,
		TotalPrice: decimal.RequireFromString("25.00"),
		Items: []models.OrderLineData{
			{ProductName: "Widget", Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductName: "Gadget", Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
	}

	subject, plainText, html := OrderConfirmationEmail(event)

	assert.Equal(t, "Order #7 confirmed", subject)
	assert.Contains(t, plainText, "Widget x2")
	assert.Contains(t, plainText, "Total: 25.00")
	assert.Contains(t, html, "<td>Gadget</td>")
}
