package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SofiaPH25/Quick-Shop/internal/cart"
	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/feedback"
	"github.com/SofiaPH25/Quick-Shop/internal/inventory"
	"github.com/SofiaPH25/Quick-Shop/internal/notify"
	"github.com/SofiaPH25/Quick-Shop/internal/payment"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/SofiaPH25/Quick-Shop/internal/checkout"

const (
	DefaultPaymentTimeout = 5 * time.Second
	DefaultNotifyTimeout  = 3 * time.Second
)

// Ledger is the stock side of checkout. *inventory.Ledger implements it.
type Ledger interface {
	Commit(ctx context.Context, reservations []inventory.Reservation) error
	TryDecrement(ctx context.Context, productID string, amount int) error
}

// OrderRecorder persists completed orders. *orders.History implements it.
type OrderRecorder interface {
	Append(ctx context.Context, order domain.Order) error
}

// Config tunes a Service.
type Config struct {
	PaymentTimeout time.Duration
	NotifyTimeout  time.Duration

	// LegacySequentialStock decrements stock line by line instead of committing all
	// lines at once. A failure midway leaves the earlier lines decremented.
	LegacySequentialStock bool
}

type metrics struct {
	attempts  metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	attempts, err := meter.Int64Counter("checkout.attempts",
		metric.WithDescription("Checkout transactions started"))
	if err != nil {
		return nil, err
	}
	completed, err := meter.Int64Counter("checkout.completed",
		metric.WithDescription("Checkout transactions that produced an order"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("checkout.failed",
		metric.WithDescription("Checkout transactions that failed, by error kind"))
	if err != nil {
		return nil, err
	}
	return &metrics{attempts: attempts, completed: completed, failed: failed}, nil
}

// Service starts checkout transactions against shared collaborators.
type Service struct {
	ledger   Ledger
	history  OrderRecorder
	gateway  payment.Gateway
	notifier notify.Notifier
	cfg      Config

	logger  observability.Logger
	tracer  observability.Tracer
	meter   metric.Meter
	metrics *metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger observability.Logger) Option {
	return func(s *Service) { s.logger = observability.LoggerOrNop(logger) }
}

func WithTracer(tracer observability.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(s *Service) {
		if meter != nil {
			s.meter = meter
		}
	}
}

// WithClock overrides the time source used for order dates and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a checkout service. notifier may be nil.
func NewService(ledger Ledger, history OrderRecorder, gateway payment.Gateway, notifier notify.Notifier, cfg Config, opts ...Option) (*Service, error) {
	if ledger == nil || history == nil || gateway == nil {
		return nil, errors.New("checkout: ledger, history and gateway are required")
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = DefaultPaymentTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}

	s := &Service{
		ledger:   ledger,
		history:  history,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := newMetrics(s.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout metrics: %w", err)
	}
	s.metrics = m
	return s, nil
}

// Begin creates an Idle transaction over a copy of lines.
func (s *Service) Begin(user *domain.User, lines []cart.Line, card payment.Card) *Transaction {
	return &Transaction{
		svc:   s,
		user:  user,
		lines: append([]cart.Line(nil), lines...),
		card:  card,
		state: StateIdle,
	}
}

// Checkout runs a fresh transaction over lines.
func (s *Service) Checkout(ctx context.Context, user *domain.User, lines []cart.Line, card payment.Card) (*domain.Order, error) {
	return s.Begin(user, lines, card).Run(ctx)
}

// PlaceOrder checks out c and clears it on success. Outcomes are also reported on the
// cart's feedback queue. A failure to clear the cart is logged; the order stands.
func PlaceOrder(ctx context.Context, s *Service, user *domain.User, c *cart.Cart, card payment.Card) (*domain.Order, error) {
	order, err := s.Checkout(ctx, user, c.Lines(), card)
	if err != nil {
		c.Events().Push(feedbackKind(err), UserMessage(err))
		return nil, err
	}

	c.Events().Push(feedback.KindSuccess, "Order placed successfully!")
	if err := c.Clear(ctx); err != nil {
		s.logger.Error("❌ Failed to clear cart after checkout",
			zap.String("order_id", order.ID),
			zap.String("user_id", c.UserID()),
			zap.Error(err),
		)
	}
	return order, nil
}
