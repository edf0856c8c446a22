package mailer

import (
	"fmt"
	"strings"

	"storefront-service/internal/models"
)

// VerificationEmail renders the registration confirmation mail. The code is
// valid for five minutes; the template says so.
func VerificationEmail(email, code string) (subject, plainText, html string) {
	subject = "Your verification code"
	plainText = fmt.Sprintf(
		"Welcome, %s!\n\nYour verification code is: %s\n\nThe code is valid for 5 minutes.",
		email, code)
	html = fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eee;">
			<h3>Welcome, %s!</h3>
			<p>Your verification code:</p>
			<h1 style="background: #f4f4f4; padding: 10px; text-align: center; letter-spacing: 5px;">%s</h1>
			<p style="font-size: 12px; color: #777;">The code is valid for 5 minutes.</p>
		</div>`, email, code)
	return subject, plainText, html
}

// OrderConfirmationEmail renders the post-checkout confirmation mail
func OrderConfirmationEmail(event *models.OrderCreatedEvent) (subject, plainText, html string) {
	subject = fmt.Sprintf("Order #%d confirmed", event.OrderID)

	var lines strings.Builder
	var htmlRows strings.Builder
	for _, item := range event.Items {
		lines.WriteString(fmt.Sprintf("  %s x%d @ %s\n", item.ProductName, item.Quantity, item.Price.StringFixed(2)))
		htmlRows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>x%d</td><td>%s</td></tr>", item.ProductName, item.Quantity, item.Price.StringFixed(2)))
	}

	plainText = fmt.Sprintf(
		"Thank you for your order #%d!\n\n%s\nTotal: %s",
		event.OrderID, lines.String(), event.TotalPrice.StringFixed(2))
	html = fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eee;">
			<h3>Thank you for your order #%d!</h3>
			<table style="width: 100%%;">%s</table>
			<p><strong>Total: %s</strong></p>
		</div>`, event.OrderID, htmlRows.String(), event.TotalPrice.StringFixed(2))
	return subject, plainText, html
}
