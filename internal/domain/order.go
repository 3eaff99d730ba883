package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a persisted order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderCompleted OrderStatus = "Completed"
	OrderCancelled OrderStatus = "Cancelled"
)

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return s == OrderPending && (next == OrderCompleted || next == OrderCancelled)
}

// OrderItem is a line of an order with the price at purchase time.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is an immutable purchase record; only Status may change.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OrderDate   time.Time       `json:"orderDate"`
	Status      OrderStatus     `json:"status"`
}

// NewOrderID returns an id of the form ORD-<unix millis>-<8 hex chars>.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Transition moves the order to next, rejecting transitions that are not allowed.
func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("order %s: cannot move from %s to %s", o.ID, o.Status, next)
	}
	o.Status = next
	return nil
}
