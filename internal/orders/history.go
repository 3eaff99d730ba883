// Package orders keeps the append-only purchase history of each user.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"
	"github.com/SofiaPH25/Quick-Shop/internal/store"

	"go.uber.org/zap"
)

// History stores orders under store.OrdersKey(userID). Appends are serialized because
// each one rewrites the user's whole list.
type History struct {
	mu     sync.Mutex
	store  store.Store
	logger observability.Logger
}

func NewHistory(st store.Store, logger observability.Logger) *History {
	return &History{
		store:  st,
		logger: observability.LoggerOrNop(logger),
	}
}

// Append records order for its user. Appending an id that is already recorded is a no-op.
func (h *History) Append(ctx context.Context, order domain.Order) error {
	if order.UserID == "" {
		return domain.NewError("orders.Append", domain.ErrUnauthenticated)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	existing, err := h.load(ctx, order.UserID)
	if err != nil {
		return domain.NewError("orders.Append", err)
	}
	for _, o := range existing {
		if o.ID == order.ID {
			h.logger.Debug("Order already recorded", zap.String("order_id", order.ID))
			return nil
		}
	}

	if err := h.store.Set(ctx, store.OrdersKey(order.UserID), append(existing, order)); err != nil {
		return domain.NewError("orders.Append", fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}

	h.logger.Info("🧾 Order recorded",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int("orders", len(existing)+1),
	)
	return nil
}

// ListByUser returns the orders of userID in the order they were recorded.
func (h *History) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := h.load(ctx, userID)
	if err != nil {
		return nil, domain.NewError("orders.ListByUser", err)
	}
	return orders, nil
}

func (h *History) load(ctx context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := h.store.Get(ctx, store.OrdersKey(userID), &orders)
	if errors.Is(err, store.ErrAbsent) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// NewestFirst returns a copy of orders sorted by OrderDate, most recent first.
func NewestFirst(orders []domain.Order) []domain.Order {
	sorted := append([]domain.Order(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderDate.After(sorted[j].OrderDate)
	})
	return sorted
}
