package app

import (
	"context"
	"fmt"

	"github.com/SofiaPH25/Quick-Shop/internal/cart"
	"github.com/SofiaPH25/Quick-Shop/internal/checkout"
	"github.com/SofiaPH25/Quick-Shop/internal/config"
	"github.com/SofiaPH25/Quick-Shop/internal/feedback"
	"github.com/SofiaPH25/Quick-Shop/internal/inventory"
	"github.com/SofiaPH25/Quick-Shop/internal/notify"
	"github.com/SofiaPH25/Quick-Shop/internal/orders"
	"github.com/SofiaPH25/Quick-Shop/internal/payment"

	"go.uber.org/zap"
)

// ServiceFactory creates business logic services with their dependencies
type ServiceFactory struct {
	container *Container
}

func NewServiceFactory(container *Container) *ServiceFactory {
	return &ServiceFactory{container: container}
}

func (f *ServiceFactory) CreateLedger(ctx context.Context) (*inventory.Ledger, error) {
	return inventory.NewLedger(ctx, f.container.Store(),
		inventory.WithLogger(f.container.Logger()),
		inventory.WithTracer(f.container.Tracer()),
	)
}

func (f *ServiceFactory) CreateHistory() *orders.History {
	return orders.NewHistory(f.container.Store(), f.container.Logger())
}

// CreateGateway returns the HTTP authorizer gateway when one is configured and the
// simulated gateway otherwise.
func (f *ServiceFactory) CreateGateway() payment.Gateway {
	cfg := f.container.Config()
	if cfg.PaymentAuthorizerURL != "" {
		f.container.Logger().Info("💳 Using credit card authorizer", zap.String("url", cfg.PaymentAuthorizerURL))
		return payment.NewHTTPGateway(cfg.PaymentAuthorizerURL, nil)
	}

	f.container.Logger().Info("💳 Using simulated payment gateway",
		zap.Float64("failure_rate", cfg.PaymentFailureRate),
		zap.Duration("latency", cfg.PaymentLatency),
	)
	return payment.NewSimulatedGateway(cfg.PaymentFailureRate, cfg.PaymentLatency)
}

// CreateNotifier fans confirmations out to the log, Kafka and RabbitMQ, depending on
// what is configured.
func (f *ServiceFactory) CreateNotifier() (notify.Notifier, error) {
	cfg := f.container.Config()
	logger := f.container.Logger()

	notifiers := []notify.Notifier{notify.NewEmailNotifier(logger)}

	if producer := f.container.MessageProducer(); producer != nil {
		notifiers = append(notifiers, notify.NewKafkaNotifier(producer, logger))
	}

	if cfg.RabbitMQURI != "" {
		amqpNotifier, err := notify.DialAMQP(cfg.RabbitMQURI, config.OrderQueue, logger)
		if err != nil {
			return nil, err
		}
		f.container.AddCloser(amqpNotifier)
		notifiers = append(notifiers, amqpNotifier)
	}

	return notify.Multi(notifiers...), nil
}

func (f *ServiceFactory) CreateCheckoutService(ledger *inventory.Ledger, history *orders.History, gateway payment.Gateway, notifier notify.Notifier) (*checkout.Service, error) {
	cfg := f.container.Config()
	return checkout.NewService(ledger, history, gateway, notifier,
		checkout.Config{
			PaymentTimeout:        cfg.PaymentTimeout,
			NotifyTimeout:         cfg.NotifyTimeout,
			LegacySequentialStock: cfg.LegacyStockCommit,
		},
		checkout.WithLogger(f.container.Logger()),
		checkout.WithTracer(f.container.Tracer()),
		checkout.WithMeter(f.container.Meter()),
	)
}

// CreateConsumerService returns nil when Kafka is not configured.
func (f *ServiceFactory) CreateConsumerService(ledger *inventory.Ledger) inventory.ConsumerService {
	consumer := f.container.MessageConsumer()
	if consumer == nil {
		return nil
	}
	handler := inventory.NewMessageHandler(ledger, f.container.Logger())
	return inventory.NewConsumerService(consumer, handler, f.container.Logger())
}

// OpenCart loads the cart of userID with a feedback queue sized from configuration.
func (f *ServiceFactory) OpenCart(ctx context.Context, userID string) (*cart.Cart, error) {
	c, err := cart.Load(ctx, f.container.Store(), userID,
		cart.WithLogger(f.container.Logger()),
		cart.WithEvents(feedback.NewQueue(f.container.Config().CartEventCapacity)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open cart for %s: %w", userID, err)
	}
	return c, nil
}
