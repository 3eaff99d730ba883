// Package checkout turns a cart into an order: payment, stock commitment, order record
// and confirmation, in that order. A failed step leaves the cart untouched and, except
// in legacy sequential mode, the inventory unchanged.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SofiaPH25/Quick-Shop/internal/cart"
	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/inventory"
	"github.com/SofiaPH25/Quick-Shop/internal/payment"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is the position of a transaction in the checkout state machine.
type State string

const (
	StateIdle           State = "Idle"
	StatePaymentPending State = "PaymentPending"
	StateStockPending   State = "StockPending"
	StatePersisting     State = "Persisting"
	StateCompleted      State = "Completed"
	StateFailed         State = "Failed"
)

// ErrNotResumable is returned when Run is called on a transaction that already started.
var ErrNotResumable = errors.New("checkout transaction cannot be resumed")

// Transaction is a single checkout attempt over a snapshot of the cart lines.
type Transaction struct {
	svc   *Service
	user  *domain.User
	lines []cart.Line
	card  payment.Card

	mu      sync.Mutex
	state   State
	started bool
	err     error
}

// State returns the current state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure reason once the transaction is Failed.
func (t *Transaction) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Transaction) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Run executes the transaction. It may be called once.
func (t *Transaction) Run(ctx context.Context) (*domain.Order, error) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil, ErrNotResumable
	}
	t.started = true
	t.mu.Unlock()

	s := t.svc
	ctx, span := s.tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(
		attribute.Int("checkout.lines", len(t.lines)),
		attribute.Bool("checkout.legacy_stock", s.cfg.LegacySequentialStock),
	)
	if t.user != nil {
		span.SetAttributes(attribute.String("user.id", t.user.ID))
	}
	s.metrics.attempts.Add(ctx, 1)

	order, err := t.run(ctx, span)
	if err != nil {
		t.mu.Lock()
		t.state = StateFailed
		t.err = err
		t.mu.Unlock()

		kind := domain.KindOf(err)
		s.metrics.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(kind))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("❌ Checkout failed",
			zap.Error(err),
			zap.String("reason", string(kind)),
			zap.String("product_id", domain.ProductIDOf(err)),
		)
		return nil, err
	}

	s.metrics.completed.Add(ctx, 1)
	span.SetAttributes(attribute.String("order.id", order.ID))
	span.SetStatus(codes.Ok, "checkout completed")

	t.notify(ctx, order)
	return order, nil
}

func (t *Transaction) run(ctx context.Context, span trace.Span) (*domain.Order, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, line := range t.lines {
		total = total.Add(line.Subtotal())
	}
	span.SetAttributes(attribute.String("checkout.total", total.StringFixed(2)))

	t.setState(StatePaymentPending)
	if err := t.charge(ctx, total); err != nil {
		return nil, err
	}

	t.setState(StateStockPending)
	if err := t.commitStock(ctx); err != nil {
		return nil, err
	}

	t.setState(StatePersisting)
	order, err := t.persist(ctx, total)
	if err != nil {
		return nil, err
	}

	t.setState(StateCompleted)
	return order, nil
}

func (t *Transaction) validate() error {
	if !t.user.Authenticated() {
		return domain.NewError("checkout.validate", domain.ErrUnauthenticated)
	}
	if len(t.lines) == 0 {
		return domain.NewError("checkout.validate", domain.ErrEmptyCart)
	}
	seen := make(map[string]struct{}, len(t.lines))
	for _, line := range t.lines {
		if line.Quantity <= 0 {
			return domain.ProductError("checkout.validate", line.Product.ID, domain.ErrInvalidQuantity)
		}
		// One order item per product.
		if _, dup := seen[line.Product.ID]; dup {
			return domain.ProductError("checkout.validate", line.Product.ID,
				fmt.Errorf("%w: product appears on more than one line", domain.ErrInvalidQuantity))
		}
		seen[line.Product.ID] = struct{}{}
	}
	if err := payment.ValidateCard(t.card); err != nil {
		return domain.NewError("checkout.validate", err)
	}
	return nil
}

func (t *Transaction) charge(ctx context.Context, total decimal.Decimal) error {
	s := t.svc
	ctx, span := s.tracer.Start(ctx, "checkout.payment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.amount", total.StringFixed(2)))

	payCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	result, err := s.gateway.Charge(payCtx, payment.Charge{Amount: total, Card: t.card})
	switch {
	case err != nil && errors.Is(err, domain.ErrInvalidPayment):
		return spanError(span, domain.NewError("checkout.payment", err))
	case err != nil:
		// Timeouts and transport failures are treated as a decline.
		s.logger.Warn("⚠️ Payment gateway error, treating as declined",
			zap.Error(err),
			zap.String("card", t.card.Masked()),
		)
		return spanError(span, domain.NewError("checkout.payment", fmt.Errorf("%w: %v", domain.ErrPaymentDeclined, err)))
	case !result.Approved():
		return spanError(span, domain.NewError("checkout.payment", fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, result.Reason)))
	}

	span.SetAttributes(attribute.String("payment.status", string(result.Status)))
	span.SetStatus(codes.Ok, "payment approved")
	return nil
}

func (t *Transaction) commitStock(ctx context.Context) error {
	s := t.svc
	ctx, span := s.tracer.Start(ctx, "checkout.stock")
	defer span.End()

	if s.cfg.LegacySequentialStock {
		for i, line := range t.lines {
			if err := s.ledger.TryDecrement(ctx, line.Product.ID, line.Quantity); err != nil {
				if i > 0 {
					committed := make([]string, 0, i)
					for _, done := range t.lines[:i] {
						committed = append(committed, done.Product.ID)
					}
					s.logger.Error("❌ Partial stock commit, earlier lines stay decremented",
						zap.Strings("committed_product_ids", committed),
						zap.String("failed_product_id", line.Product.ID),
						zap.Error(err),
					)
				}
				return spanError(span, domain.NewError("checkout.stock", err))
			}
		}
		span.SetStatus(codes.Ok, "stock decremented sequentially")
		return nil
	}

	reservations := make([]inventory.Reservation, 0, len(t.lines))
	for _, line := range t.lines {
		reservations = append(reservations, inventory.Reservation{ProductID: line.Product.ID, Quantity: line.Quantity})
	}
	if err := s.ledger.Commit(ctx, reservations); err != nil {
		return spanError(span, domain.NewError("checkout.stock", err))
	}

	span.SetStatus(codes.Ok, "stock committed")
	return nil
}

func (t *Transaction) persist(ctx context.Context, total decimal.Decimal) (*domain.Order, error) {
	s := t.svc
	ctx, span := s.tracer.Start(ctx, "checkout.persist")
	defer span.End()

	now := s.now()
	order := domain.Order{
		ID:          domain.NewOrderID(now),
		UserID:      t.user.ID,
		Items:       make([]domain.OrderItem, 0, len(t.lines)),
		TotalAmount: total,
		OrderDate:   now,
		Status:      domain.OrderPending,
	}
	for _, line := range t.lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.Product.Price,
		})
	}
	if err := order.Transition(domain.OrderCompleted); err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := s.history.Append(ctx, order); err != nil {
		s.logger.Error("❌ Order could not be recorded after payment and stock were committed",
			zap.String("order_id", order.ID),
			zap.String("user_id", order.UserID),
			zap.String("total", total.StringFixed(2)),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		return nil, spanError(span, domain.NewError("checkout.persist", err))
	}

	s.logger.Info("✅ Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", total.StringFixed(2)),
	)
	span.SetStatus(codes.Ok, "order recorded")
	return &order, nil
}

// notify never fails the checkout.
func (t *Transaction) notify(ctx context.Context, order *domain.Order) {
	s := t.svc
	if s.notifier == nil {
		return
	}

	ctx, span := s.tracer.Start(ctx, "checkout.notify")
	defer span.End()

	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(notifyCtx, t.user.Email, *order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("⚠️ Failed to send order confirmation, order was placed",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return
	}
	span.SetStatus(codes.Ok, "confirmation sent")
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
