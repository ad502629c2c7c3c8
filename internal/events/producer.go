package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mvshop/marketplace-service/internal/config"
	"github.com/mvshop/marketplace-service/internal/entities"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type        string               `json:"type"`
	OrderID     string               `json:"order_id"`
	OrderNumber string               `json:"order_number"`
	CustomerID  string               `json:"customer_id"`
	Status      entities.OrderStatus `json:"status"`
	Total       float64              `json:"total"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

type producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(logger *slog.Logger, cfg config.Kafka) *producer {
	return &producer{
		logger: logger.With(slog.String("component", "events")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.OrdersTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *producer) OrderCreated(ctx context.Context, order entities.Order) {
	p.publish(ctx, OrderEvent{
		Type:        TypeOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		Total:       order.Pricing.Total,
		OccurredAt:  time.Now(),
	})
}

func (p *producer) OrderStatusChanged(ctx context.Context, order entities.Order) {
	p.publish(ctx, OrderEvent{
		Type:        TypeOrderStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		Total:       order.Pricing.Total,
		OccurredAt:  time.Now(),
	})
}

// publish не роняет основную операцию: заказ уже сохранён, событие best-effort.
func (p *producer) publish(ctx context.Context, event OrderEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", slog.Any("error", err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	// В библиотеке уже есть retry
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(fmt.Sprintf("failed to publish %s", event.Type),
			slog.Any("error", err), slog.String("order_id", event.OrderID))
	}
}

func (p *producer) Close() error {
	return p.writer.Close()
}
