package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, to, subject, plainText, html string) error
}

// SendGridMailer implements Mailer via the SendGrid API
type SendGridMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewSendGridMailer creates a SendGrid-backed mailer
func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Send sends an email using SendGrid
func (m *SendGridMailer) Send(ctx context.Context, to, subject, plainText, html string) error {
	if m.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, html)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}

// LogMailer logs instead of sending; used in development when no SendGrid
// key is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, plainText, html string) error {
	m.logger.Info("Mail (not sent, log mailer)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", plainText))
	return nil
}
