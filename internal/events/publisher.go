package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	OrderCreated         = "order.created"
	OrderReceiptAttached = "order.receipt_attached"
	OrderCompleted       = "order.completed"
	OrderRejected        = "order.rejected"
)

// OrderEvent is published after an order transition commits.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Status     string    `json:"status"`
	ActorID    uuid.UUID `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close() error
}

// KafkaPublisher writes order events to a kafka topic keyed by order id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: data,
		Time:  event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	logrus.WithFields(logrus.Fields{
		"event":    event.Type,
		"order_id": event.OrderID,
		"status":   event.Status,
	}).Debug("order event")
	return nil
}

func (LogPublisher) Close() error { return nil }
