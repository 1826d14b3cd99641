package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nefol/discovery/pkg/kafka"

// DefaultHandlerRetries is how often a handler is attempted before the
// message is dead-lettered and skipped.
const DefaultHandlerRetries = 3

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// MessageReader is the read side of kafka-go; *kafka.Reader satisfies it.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	MinBytes int
	MaxBytes int
}

// NewReader builds a group reader subscribed to every configured topic.
func NewReader(cfg ConsumerConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
}

// Consumer fetches messages, decodes the envelope and hands events to a
// Handler with bounded retries. Every message is committed exactly once it
// has been handled, dead-lettered or found undecodable.
type Consumer struct {
	reader    MessageReader
	handler   Handler
	dlq       *DLQ
	retries   int
	backoff   time.Duration
	logger    *slog.Logger
	closeOnce sync.Once
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithDLQ forwards messages that exhaust their retries to dlq.
func WithDLQ(dlq *DLQ) ConsumerOption {
	return func(c *Consumer) { c.dlq = dlq }
}

// WithRetries sets the attempts per message and the linear backoff step.
func WithRetries(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if attempts > 0 {
			c.retries = attempts
		}
		c.backoff = backoff
	}
}

// NewConsumer creates a consumer over reader.
func NewConsumer(reader MessageReader, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:  reader,
		handler: handler,
		retries: DefaultHandlerRetries,
		backoff: 100 * time.Millisecond,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes until ctx is canceled or the reader is closed, which
// kafka-go reports as io.EOF.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("catalog event consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if sleep(ctx, c.backoff) != nil {
				return nil
			}
			continue
		}
		consumerMessagesReceived.WithLabelValues(msg.Topic).Inc()

		if err := c.process(ctx, msg); err != nil && ctx.Err() != nil {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		consumerMessagesFailed.WithLabelValues(msg.Topic, "decode").Inc()
		c.logger.ErrorContext(ctx, "failed to decode event",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.deadLetter(ctx, msg, err)
		span.SetStatus(codes.Error, "decode")
		return nil
	}

	start := time.Now()
	err = c.handle(ctx, msg, event)
	consumerProcessingDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	if err == nil {
		consumerMessagesProcessed.WithLabelValues(msg.Topic).Inc()
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	consumerMessagesFailed.WithLabelValues(msg.Topic, "handler").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.ErrorContext(ctx, "handler failed after all retries, skipping message",
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
		slog.Int64("offset", msg.Offset),
		slog.String("error", err.Error()),
	)
	c.deadLetter(ctx, msg, err)
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			return nil
		}
		c.logger.WarnContext(ctx, "handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.retries),
			slog.String("error", lastErr.Error()),
		)
		if attempt < c.retries {
			if err := sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", event.EventType, c.retries, lastErr)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause); err != nil {
		c.logger.ErrorContext(ctx, "failed to dead-letter message", slog.String("error", err.Error()))
	}
}

// Close closes the reader. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
