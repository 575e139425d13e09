package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"peelojuice/internal/config"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
)

// Producer streams order and payment lifecycle events, one writer per
// topic. When kafka is disabled every publish is a logged no-op so the rest
// of the system never has to care.
type Producer struct {
	orderCreated     *kafka.Writer
	orderStatus      *kafka.Writer
	paymentCompleted *kafka.Writer
	log              *logger.Logger
	enabled          bool
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	p := &Producer{log: log, enabled: cfg.Enabled}
	if !cfg.Enabled {
		log.Warn("KAFKA", "kafka disabled, lifecycle events will not be published")
		return p
	}

	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.Brokers,
			Topic:   topic,
		})
	}
	p.orderCreated = newWriter(cfg.Topics.OrderCreated)
	p.orderStatus = newWriter(cfg.Topics.OrderStatusChanged)
	p.paymentCompleted = newWriter(cfg.Topics.PaymentCompleted)
	return p
}

func (p *Producer) publish(writer *kafka.Writer, topic, key string, payload interface{}) error {
	if !p.enabled {
		return nil
	}

	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.log.LogKafka("PUBLISH", topic, string(msgBytes))
	return writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(key),
		Value: msgBytes,
	})
}

// PublishOrderCreated streams a freshly placed order.
func (p *Producer) PublishOrderCreated(order models.Order) error {
	return p.publish(p.orderCreated, "order.created", order.ID, order)
}

// PublishOrderStatusChanged streams a status transition.
func (p *Producer) PublishOrderStatusChanged(order models.Order) error {
	return p.publish(p.orderStatus, "order.status_changed", order.ID, order)
}

// PublishPaymentCompleted streams a settled payment.
func (p *Producer) PublishPaymentCompleted(payment models.Payment) error {
	return p.publish(p.paymentCompleted, "payment.completed", payment.ID, payment)
}

// Close shuts down all topic writers.
func (p *Producer) Close() error {
	if !p.enabled {
		return nil
	}
	var firstErr error
	for _, w := range []*kafka.Writer{p.orderCreated, p.orderStatus, p.paymentCompleted} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
