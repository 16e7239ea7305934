package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/grocerly/grocery/pkg/kafka"
)

// Kafka topic constants for cart domain events.
const (
	TopicCartItemAdded   = "grocery.cart.item_added"
	TopicCartItemRemoved = "grocery.cart.item_removed"
)

// Aggregate type constant.
const AggregateTypeCart = "cart"

// Source identifier for events originating from the cart service.
const SourceCartService = "cart-service"

// CartItemAddedData is the payload for a cart.item_added event.
type CartItemAddedData struct {
	CartID        int64   `json:"cart_id"`
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	AddedQuantity int     `json:"added_quantity"`
	NewQuantity   int     `json:"new_quantity"`
}

// CartItemRemovedData is the payload for a cart.item_removed event.
type CartItemRemovedData struct {
	CartID            int64 `json:"cart_id"`
	ProductID         int64 `json:"product_id"`
	RemovedQuantity   int   `json:"removed_quantity"`
	RemainingQuantity int   `json:"remaining_quantity"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the cart service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartItemAdded publishes a cart.item_added event.
func (p *Producer) PublishCartItemAdded(ctx context.Context, data CartItemAddedData) error {
	event, err := pkgkafka.NewEvent(TopicCartItemAdded, strconv.FormatInt(data.CartID, 10), AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.item_added event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartItemAdded, event); err != nil {
		return fmt.Errorf("publish cart.item_added event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.item_added event",
		slog.Int64("cart_id", data.CartID),
		slog.Int64("product_id", data.ProductID),
	)

	return nil
}

// PublishCartItemRemoved publishes a cart.item_removed event.
func (p *Producer) PublishCartItemRemoved(ctx context.Context, data CartItemRemovedData) error {
	event, err := pkgkafka.NewEvent(TopicCartItemRemoved, strconv.FormatInt(data.CartID, 10), AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.item_removed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartItemRemoved, event); err != nil {
		return fmt.Errorf("publish cart.item_removed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.item_removed event",
		slog.Int64("cart_id", data.CartID),
		slog.Int64("product_id", data.ProductID),
	)

	return nil
}
