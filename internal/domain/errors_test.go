package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"empty cart", ErrEmptyCart, KindValidation},
		{"unauthenticated", ErrUnauthenticated, KindValidation},
		{"bad quantity", fmt.Errorf("cart.AddItem: %w", ErrInvalidQuantity), KindValidation},
		{"bad card", ErrInvalidPayment, KindValidation},
		{"stock", ProductError("ledger.TryDecrement", "1", ErrInsufficientStock), KindAvailability},
		{"missing product", ErrProductNotFound, KindAvailability},
		{"declined", ErrPaymentDeclined, KindPayment},
		{"persistence", fmt.Errorf("wrapped: %w", ErrPersistence), KindPersistence},
		{"other", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsRecoverable(ErrEmptyCart))
	assert.True(t, IsRecoverable(ErrInsufficientStock))
	assert.False(t, IsRecoverable(ErrPaymentDeclined))
	assert.False(t, IsRecoverable(ErrPersistence))

	assert.True(t, IsRetryable(ErrPaymentDeclined))
	assert.False(t, IsRetryable(ErrInsufficientStock))
}

func TestError_UnwrapAndProductID(t *testing.T) {
	inner := ProductError("ledger.Commit", "42", ErrInsufficientStock)
	outer := NewError("checkout.stock", inner)

	require.ErrorIs(t, outer, ErrInsufficientStock)
	assert.Equal(t, KindAvailability, outer.Kind)
	assert.Equal(t, "42", ProductIDOf(outer))
	assert.Equal(t, "", ProductIDOf(ErrEmptyCart))
	assert.Contains(t, inner.Error(), "ledger.Commit [42]")
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransition(OrderCompleted))
	assert.True(t, OrderPending.CanTransition(OrderCancelled))
	assert.False(t, OrderCompleted.CanTransition(OrderCancelled))
	assert.False(t, OrderCancelled.CanTransition(OrderPending))

	order := Order{ID: "ORD-1", Status: OrderPending}
	require.NoError(t, order.Transition(OrderCompleted))
	assert.Equal(t, OrderCompleted, order.Status)
	assert.Error(t, order.Transition(OrderCancelled))
}

func TestNewOrderID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := NewOrderID(now)
	b := NewOrderID(now)

	assert.Regexp(t, `^ORD-1700000000123-[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{Quantity: 3, UnitPrice: decimal.RequireFromString("18.75")}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("56.25")))
}

func TestUserAuthenticated(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.Authenticated())
	assert.False(t, (&User{Email: "a@b.c"}).Authenticated())
	assert.True(t, (&User{ID: "u1"}).Authenticated())
}
