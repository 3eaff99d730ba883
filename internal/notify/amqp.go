package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the subset of *amqp.Channel the notifier uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes OrderConfirmed events to a RabbitMQ queue on the default exchange.
type AMQPNotifier struct {
	publisher Publisher
	queue     string
	logger    observability.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPNotifier(publisher Publisher, queue string, logger observability.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		publisher: publisher,
		queue:     queue,
		logger:    observability.LoggerOrNop(logger),
	}
}

// DialAMQP connects to uri and declares a durable queue. Close releases the connection.
func DialAMQP(uri, queue string, logger observability.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", queue, err)
	}

	n := NewAMQPNotifier(ch, q.Name, logger)
	n.conn, n.ch = conn, ch
	return n, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, email string, order domain.Order) error {
	body, err := json.Marshal(domain.NewOrderConfirmedEvent(email, order))
	if err != nil {
		return err
	}

	err = n.publisher.PublishWithContext(ctx,
		"",
		n.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    order.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		n.logger.Error("❌ Failed to publish order to RabbitMQ",
			zap.Error(err),
			zap.String("order_id", order.ID),
		)
		return err
	}

	n.logger.Info("📤 Order published to RabbitMQ",
		zap.String("order_id", order.ID),
		zap.String("queue", n.queue),
	)
	return nil
}

// Close releases the channel and connection opened by DialAMQP.
func (n *AMQPNotifier) Close() error {
	var err error
	if n.ch != nil {
		err = errors.Join(err, n.ch.Close())
	}
	if n.conn != nil {
		err = errors.Join(err, n.conn.Close())
	}
	return err
}
