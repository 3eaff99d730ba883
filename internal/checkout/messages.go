package checkout

import (
	"errors"
	"fmt"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/feedback"
)

// UserMessage turns a checkout error into text suitable for the shopper.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Please log in to place an order."
	case errors.Is(err, domain.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, domain.ErrInvalidPayment):
		return "Please check your payment details."
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "Your cart contains an invalid quantity."
	case errors.Is(err, domain.ErrPaymentDeclined):
		return "Payment was declined. Please try again."
	case errors.Is(err, domain.ErrInsufficientStock):
		if id := domain.ProductIDOf(err); id != "" {
			return fmt.Sprintf("Not enough stock for product %s. Please review your cart.", id)
		}
		return "Not enough stock to complete your order. Please review your cart."
	case errors.Is(err, domain.ErrProductNotFound):
		return "An item in your cart is no longer available."
	case errors.Is(err, domain.ErrPersistence):
		return "Your order could not be recorded. Please contact support."
	}
	return "An unexpected error occurred during checkout."
}

func feedbackKind(err error) feedback.Kind {
	if domain.IsRecoverable(err) {
		return feedback.KindWarning
	}
	return feedback.KindError
}
