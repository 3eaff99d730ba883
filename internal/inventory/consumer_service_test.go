package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/store"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type read struct {
	msg kafkago.Message
	err error
}

// fakeConsumer serves queued reads in order, then blocks until the context is done.
type fakeConsumer struct {
	reads chan read
}

func newFakeConsumer(buffer int) *fakeConsumer {
	return &fakeConsumer{reads: make(chan read, buffer)}
}

func (f *fakeConsumer) push(msg kafkago.Message) { f.reads <- read{msg: msg} }

func (f *fakeConsumer) fail(err error) { f.reads <- read{err: err} }

func (f *fakeConsumer) ReadMessage(ctx context.Context) (*kafkago.Message, error) {
	select {
	case r := <-f.reads:
		if r.err != nil {
			return nil, r.err
		}
		return &r.msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConsumer) Close() error { return nil }

func stockMessage(t *testing.T, productID string, stock int) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(domain.StockAdjustedEvent{ProductID: productID, Stock: stock})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(productID), Value: payload}
}

func TestMessageHandler_AppliesAdjustment(t *testing.T) {
	ctx := context.Background()
	l := newSeededLedger(t, store.NewMemoryStore(), product("1", "10.00", 3))
	handler := NewMessageHandler(l, nil)

	require.NoError(t, handler.HandleStockAdjusted(ctx, stockMessage(t, "1", 12)))
	stock, _ := l.GetStock("1")
	assert.Equal(t, 12, stock)

	err := handler.HandleStockAdjusted(ctx, stockMessage(t, "1", -4))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	err = handler.HandleStockAdjusted(ctx, kafkago.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}

func TestConsumerService_ProcessesUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := newSeededLedger(t, store.NewMemoryStore(), product("1", "10.00", 3), product("2", "1.00", 1))
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	consumer := newFakeConsumer(4)
	consumer.push(stockMessage(t, "1", 7))
	consumer.push(kafkago.Message{Value: []byte("garbage")})
	consumer.fail(errors.New("broker hiccup"))
	consumer.push(stockMessage(t, "2", 9))

	svc := NewConsumerService(consumer, NewMessageHandler(l, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	require.Eventually(t, func() bool {
		stock, _ := l.GetStock("2")
		return stock == 9
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}

	stock, _ := l.GetStock("1")
	assert.Equal(t, 7, stock)
	assert.Equal(t, 1, logs.FilterMessage("❌ Invalid JSON in StockAdjusted event").Len())
	assert.Equal(t, 1, logs.FilterMessage("❌ Error reading from Kafka").Len())
}
