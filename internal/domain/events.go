package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAdjustedEvent is an administrative stock overwrite delivered over the message bus.
type StockAdjustedEvent struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// OrderConfirmedEvent announces a completed order to downstream consumers.
type OrderConfirmedEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
}

// NewOrderConfirmedEvent builds the event for order addressed to email.
func NewOrderConfirmedEvent(email string, order Order) OrderConfirmedEvent {
	return OrderConfirmedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Email:       email,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		OrderDate:   order.OrderDate,
	}
}
