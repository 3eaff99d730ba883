package notify

import (
	"context"
	"encoding/json"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/kafka"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier publishes an OrderConfirmed event keyed by order id.
type KafkaNotifier struct {
	producer kafka.Producer
	logger   observability.Logger
}

func NewKafkaNotifier(producer kafka.Producer, logger observability.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		logger:   observability.LoggerOrNop(logger),
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, email string, order domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderConfirmedEvent(email, order))
	if err != nil {
		n.logger.Error("❌ Failed to serialize OrderConfirmed event",
			zap.Error(err),
			zap.String("order_id", order.ID),
		)
		return err
	}

	msg := kafkago.Message{
		Key:   []byte(order.ID),
		Value: payload,
	}
	if err := n.producer.WriteMessage(ctx, msg); err != nil {
		n.logger.Error("❌ Failed to publish OrderConfirmed event",
			zap.Error(err),
			zap.String("order_id", order.ID),
		)
		return err
	}

	n.logger.Info("📤 Sent OrderConfirmed event", zap.String("order_id", order.ID))
	return nil
}
