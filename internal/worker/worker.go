package worker

import (
	"context"
	"log"

	"storefront-service/internal/broker"
	"storefront-service/internal/mailer"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes domain events and sends the matching emails
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       mailer.Mailer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, m mailer.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		mailer:   m,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnUserRegistered(w.handleUserRegistered)
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	subject, plainText, html := mailer.VerificationEmail(event.Email, event.Code)

	if err := w.mailer.Send(ctx, event.Email, subject, plainText, html); err != nil {
		util.EmailsSentTotal.WithLabelValues("verification", "error").Inc()
		w.logger.Error("Failed to send verification email",
			zap.Int64("user_id", event.UserID),
			zap.Error(err))
		return err
	}

	util.EmailsSentTotal.WithLabelValues("verification", "ok").Inc()
	w.logger.Info("Verification email sent", zap.Int64("user_id", event.UserID))
	return nil
}

func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	if event.Email == "" {
		w.logger.Warn("OrderCreated event without email, skipping confirmation",
			zap.Int64("order_id", event.OrderID))
		return nil
	}

	subject, plainText, html := mailer.OrderConfirmationEmail(event)

	if err := w.mailer.Send(ctx, event.Email, subject, plainText, html); err != nil {
		util.EmailsSentTotal.WithLabelValues("order_confirmation", "error").Inc()
		w.logger.Error("Failed to send order confirmation email",
			zap.Int64("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	util.EmailsSentTotal.WithLabelValues("order_confirmation", "ok").Inc()
	w.logger.Info("Order confirmation email sent", zap.Int64("order_id", event.OrderID))
	return nil
}
