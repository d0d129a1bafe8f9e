package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/logger"
	"storefront/models"
)

// PaymentChecker cancels orders still unpaid when their payment check fires.
type PaymentChecker interface {
	HandlePaymentCheck(ctx context.Context, orderID int64) error
}

const handleTimeout = 30 * time.Second

func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config, checker PaymentChecker) error {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"storefront", // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(msg, checker)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"storefront-dlq", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		logger.GetLogger().Error("Failed to register DLQ consumer", zap.Error(err))
		return nil
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
	return nil
}

var errMissingFields = errors.New("decode order event: missing order id or type")

// DecodeEvent parses an order event message body.
func DecodeEvent(body []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.OrderEvent{}, fmt.Errorf("decode order event: %w", err)
	}
	if event.OrderID <= 0 || event.Type == "" {
		return models.OrderEvent{}, errMissingFields
	}
	return event, nil
}

func processOrderMessage(msg amqp.Delivery, checker PaymentChecker) {
	log := logger.GetLogger()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in message processing", zap.Any("panic", r))
			_ = msg.Nack(false, false)
		}
	}()

	event, err := DecodeEvent(msg.Body)
	if err != nil {
		log.Warn("Invalid order message", zap.ByteString("body", msg.Body), zap.Error(err))
		// rejected without requeue, so it lands in the dead letter queue
		_ = msg.Nack(false, false)
		return
	}

	log = log.With(zap.Int64("order_id", event.OrderID), zap.String("type", event.Type))
	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background(), log), handleTimeout)
	defer cancel()

	switch event.Type {
	case models.EventCreated, models.EventUpdated:
		log.Info("Order priced", zap.String("currency", event.Currency), zap.String("total", event.Total.String()))
	case models.EventStatusUpdated:
		log.Info("Order status changed", zap.String("status", event.Status))
	case models.EventPaymentCheck:
		if err := checker.HandlePaymentCheck(ctx, event.OrderID); err != nil {
			log.Error("Payment check failed", zap.Error(err))
			_ = msg.Nack(false, false)
			return
		}
	default:
		log.Warn("Unknown event type")
	}

	if err := msg.Ack(false); err != nil {
		log.Warn("Failed to ack order message", zap.Error(err))
	}
}

func processDeadLetterMessage(msg amqp.Delivery) {
	logger.GetLogger().Warn("Received dead letter", zap.ByteString("body", msg.Body))
	if err := msg.Ack(false); err != nil {
		logger.GetLogger().Warn("Failed to ack dead letter", zap.Error(err))
	}
}
