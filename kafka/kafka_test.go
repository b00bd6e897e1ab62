package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-scanner/internal/inventory/domain"
)

func TestPublisher_PublishLowStock(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var event StockAlertEvent
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.EventType != EventTypeStockLow || event.Stock != 5 || event.Threshold != 10 {
			return errors.New("unexpected event payload")
		}
		if event.Tier != string(domain.TierLow) || event.EventID == "" {
			return errors.New("missing tier or id")
		}
		return nil
	})

	p := NewPublisherWithProducer(producer)
	defer p.Close()

	err := p.PublishLowStock(context.Background(), domain.Product{
		ID:             7,
		Barcode:        "7501031311309",
		Name:           "Oil Filter",
		Price:          decimal.NewFromInt(10),
		Stock:          5,
		StockThreshold: 10,
	})
	require.NoError(t, err)
}

func TestPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisherWithProducer(producer)
	defer p.Close()

	err := p.PublishLowStock(context.Background(), domain.Product{ID: 1, Barcode: "12345678"})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func soldMessage(t *testing.T, eventType string, event ProductSoldEvent) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)

	msg := &sarama.ConsumerMessage{Topic: TopicProductSold, Value: value}
	if eventType != "" {
		msg.Headers = []*sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
			{Key: []byte("event_id"), Value: []byte("evt_1")},
		}
	}
	return msg
}

func TestConsumer_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("DispatchesSale", func(t *testing.T) {
		c := newConsumer("test", []string{TopicProductSold})
		var got ProductSoldEvent
		c.RegisterHandler(EventTypeProductSold, func(_ context.Context, e ProductSoldEvent) error {
			got = e
			return nil
		})

		err := c.handleMessage(ctx, soldMessage(t, EventTypeProductSold, ProductSoldEvent{Barcode: "12345678", Quantity: 2}))
		require.NoError(t, err)
		require.Equal(t, "12345678", got.Barcode)
		require.Equal(t, 2, got.Quantity)
	})

	t.Run("MissingEventType", func(t *testing.T) {
		c := newConsumer("test", nil)
		err := c.handleMessage(ctx, soldMessage(t, "", ProductSoldEvent{}))
		require.ErrorIs(t, err, errNoEventType)
	})

	t.Run("NoHandler", func(t *testing.T) {
		c := newConsumer("test", nil)
		err := c.handleMessage(ctx, soldMessage(t, "product.returned", ProductSoldEvent{}))
		require.ErrorIs(t, err, errNoHandler)
	})

	t.Run("BadPayload", func(t *testing.T) {
		c := newConsumer("test", nil)
		c.RegisterHandler(EventTypeProductSold, func(context.Context, ProductSoldEvent) error { return nil })

		msg := soldMessage(t, EventTypeProductSold, ProductSoldEvent{})
		msg.Value = []byte("{")
		require.Error(t, c.handleMessage(ctx, msg))
	})

	t.Run("HandlerError", func(t *testing.T) {
		c := newConsumer("test", nil)
		c.RegisterHandler(EventTypeProductSold, func(context.Context, ProductSoldEvent) error {
			return domain.ErrNotFound
		})
		err := c.handleMessage(ctx, soldMessage(t, EventTypeProductSold, ProductSoldEvent{Barcode: "12345678", Quantity: 1}))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
