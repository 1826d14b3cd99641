package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nefol/discovery/internal/service"
	pkgkafka "github.com/nefol/discovery/pkg/kafka"
)

// Product lifecycle topics consumed by the discovery index.
var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// ProductTopics lists every topic the consumer subscribes to.
func ProductTopics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// ProductDeletedData represents the payload from a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Consumer keeps the discovery index in step with catalog changes.
type Consumer struct {
	discoveryService *service.DiscoveryService
	logger           *slog.Logger
}

// NewConsumer creates a new catalog event consumer.
func NewConsumer(discoveryService *service.DiscoveryService, logger *slog.Logger) *Consumer {
	return &Consumer{
		discoveryService: discoveryService,
		logger:           logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.handleProductUpserted(ctx, event)
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleProductUpserted indexes the product document carried by a created or
// updated event. The document is normalized like any catalog record.
func (c *Consumer) handleProductUpserted(ctx context.Context, event *pkgkafka.Event) error {
	var raw map[string]any
	if err := event.UnmarshalData(&raw); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if _, ok := raw["id"]; !ok && event.AggregateID != "" {
		raw["id"] = event.AggregateID
	}

	product, err := c.discoveryService.IndexRaw(ctx, raw)
	if err != nil {
		return fmt.Errorf("index product from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed product from event",
		slog.String("event_type", event.EventType),
		slog.String("product_id", product.ID),
	)
	return nil
}

// handleProductDeleted removes a deleted product from the index.
func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	id := strings.TrimSpace(data.ID)
	if id == "" {
		id = event.AggregateID
	}

	if err := c.discoveryService.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted product from event",
		slog.String("product_id", id),
	)
	return nil
}
