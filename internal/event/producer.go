package event

import (
	"context"
	"fmt"

	"github.com/nefol/discovery/internal/domain"
	pkgkafka "github.com/nefol/discovery/pkg/kafka"
)

// Publisher is the subset of the Kafka producer used to emit catalog events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// ProductProducer emits product lifecycle events.
type ProductProducer struct {
	publisher Publisher
	source    string
}

// NewProductProducer creates a producer tagging events with source.
func NewProductProducer(publisher Publisher, source string) *ProductProducer {
	return &ProductProducer{publisher: publisher, source: source}
}

// PublishUpserted emits a product.created or product.updated event carrying
// the raw product document.
func (p *ProductProducer) PublishUpserted(ctx context.Context, topic, id string, document map[string]any) error {
	if topic != TopicProductCreated && topic != TopicProductUpdated {
		return fmt.Errorf("publish product: unsupported topic %q", topic)
	}
	event, err := pkgkafka.NewEvent(topic, id, "product", p.source, document)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, topic, event)
}

// PublishProduct emits a product.created event for a normalized product.
func (p *ProductProducer) PublishProduct(ctx context.Context, product *domain.Product) error {
	event, err := pkgkafka.NewEvent(TopicProductCreated, product.ID, "product", p.source, product)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, TopicProductCreated, event)
}

// PublishDeleted emits a product.deleted event.
func (p *ProductProducer) PublishDeleted(ctx context.Context, id string) error {
	event, err := pkgkafka.NewEvent(TopicProductDeleted, id, "product", p.source, ProductDeletedData{ID: id})
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, TopicProductDeleted, event)
}
