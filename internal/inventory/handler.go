package inventory

import (
	"context"
	"encoding/json"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// StockSetter is the part of the ledger the stock-adjustment handler needs.
type StockSetter interface {
	SetStock(ctx context.Context, productID string, value int) error
}

// MessageHandler defines the interface for processing incoming messages.
type MessageHandler interface {
	HandleStockAdjusted(ctx context.Context, msg kafkago.Message) error
}

// KafkaMessageHandler applies StockAdjusted messages to the ledger.
type KafkaMessageHandler struct {
	ledger StockSetter
	logger observability.Logger
}

func NewMessageHandler(ledger StockSetter, logger observability.Logger) MessageHandler {
	return &KafkaMessageHandler{
		ledger: ledger,
		logger: observability.LoggerOrNop(logger),
	}
}

// HandleStockAdjusted processes a StockAdjusted message from Kafka
func (h *KafkaMessageHandler) HandleStockAdjusted(ctx context.Context, msg kafkago.Message) error {
	// Continue the producer's trace
	msgCtx := h.extractTraceContext(ctx, msg.Headers)

	h.logger.Info("📨 Raw Kafka message received",
		zap.ByteString("key", msg.Key),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	var event domain.StockAdjustedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("❌ Invalid JSON in StockAdjusted event",
			zap.Error(err),
			zap.ByteString("raw_value", msg.Value),
		)
		return err
	}

	if err := h.ledger.SetStock(msgCtx, event.ProductID, event.Stock); err != nil {
		h.logger.Error("❌ Failed to apply stock adjustment",
			zap.Error(err),
			zap.String("product_id", event.ProductID),
			zap.Int("stock", event.Stock),
		)
		return err
	}

	h.logger.Info("✅ Stock adjustment applied",
		zap.String("product_id", event.ProductID),
		zap.Int("stock", event.Stock),
	)
	return nil
}

func (h *KafkaMessageHandler) extractTraceContext(ctx context.Context, headers []kafkago.Header) context.Context {
	propagator := otel.GetTextMapPropagator()
	carrier := propagation.MapCarrier{}

	for _, header := range headers {
		carrier[string(header.Key)] = string(header.Value)
	}

	return propagator.Extract(ctx, carrier)
}
