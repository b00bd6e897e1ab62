package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer) *Publisher {
	return &Publisher{producer: producer}
}

// PublishLowStock publishes a stock alert for product with tracing
func (p *Publisher) PublishLowStock(ctx context.Context, product domain.Product) error {
	status := product.Status()
	event := StockAlertEvent{
		EventID:   "evt_" + uuid.NewString(),
		EventType: EventTypeStockLow,
		ProductID: product.ID,
		Barcode:   product.Barcode,
		Name:      product.Name,
		Category:  product.Category,
		Stock:     product.Stock,
		Threshold: product.StockThreshold,
		Tier:      string(status.Tier),
		Price:     product.Price,
		Timestamp: time.Now().UTC(),
	}
	return p.PublishStockAlert(ctx, event)
}

// PublishStockAlert publishes a stock alert event
func (p *Publisher) PublishStockAlert(ctx context.Context, event StockAlertEvent) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish.stock_alert",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicStockAlerts),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", EventTypeStockLow),
			attribute.Int64("product.id", int64(event.ProductID)),
			attribute.Int("product.stock", event.Stock),
		),
	)
	defer span.End()

	if event.EventID == "" {
		event.EventID = "evt_" + uuid.NewString()
	}
	event.EventType = EventTypeStockLow
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	span.SetAttributes(attribute.String("event.id", event.EventID))

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(EventTypeStockLow)},
		{Key: []byte("event_id"), Value: []byte(event.EventID)},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   TopicStockAlerts,
		Key:     sarama.StringEncoder(event.Barcode),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Error(ctx).
			Err(err).
			Str("topic", TopicStockAlerts).
			Uint("product_id", event.ProductID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Info(ctx).
		Str("event_id", event.EventID).
		Str("topic", TopicStockAlerts).
		Int32("partition", partition).
		Int64("offset", offset).
		Uint("product_id", event.ProductID).
		Int("stock", event.Stock).
		Int("threshold", event.Threshold).
		Msg("Stock alert published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
