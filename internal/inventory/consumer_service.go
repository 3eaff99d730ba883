package inventory

import (
	"context"
	"errors"

	"github.com/SofiaPH25/Quick-Shop/internal/platform/kafka"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"

	"go.uber.org/zap"
)

type ConsumerService interface {
	Start(ctx context.Context) error
}

// KafkaConsumerService reads stock adjustments until its context is done.
type KafkaConsumerService struct {
	consumer       kafka.Consumer
	messageHandler MessageHandler
	logger         observability.Logger
}

func NewConsumerService(consumer kafka.Consumer, messageHandler MessageHandler, logger observability.Logger) ConsumerService {
	return &KafkaConsumerService{
		consumer:       consumer,
		messageHandler: messageHandler,
		logger:         observability.LoggerOrNop(logger),
	}
}

func (c *KafkaConsumerService) Start(ctx context.Context) error {
	c.logger.Info("Kafka consumer started. Waiting for stock adjustments...")

	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.logger.Info("Context done, exiting Kafka read loop.", zap.Error(err))
				break
			}
			c.logger.Error("❌ Error reading from Kafka", zap.Error(err))
			continue
		}

		if err := c.messageHandler.HandleStockAdjusted(ctx, *msg); err != nil {
			continue
		}
	}

	c.logger.Info("Consumer service finished. Shutting down...")
	return nil
}
