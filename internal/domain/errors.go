package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is. They are wrapped with context by the
// component that detects them.
var (
	// Validation errors
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnauthenticated = errors.New("user is not authenticated")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPayment  = errors.New("invalid payment details")

	// Availability errors
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")

	// Payment errors
	ErrPaymentDeclined = errors.New("payment declined")

	// Persistence errors
	ErrPersistence = errors.New("persistence failure")
)

// Kind groups errors by how the caller is expected to react.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindAvailability Kind = "availability"
	KindPayment      Kind = "payment"
	KindPersistence  Kind = "persistence"
	KindUnknown      Kind = "unknown"
)

// Error carries the operation and, for availability failures, the product involved.
type Error struct {
	Op        string // e.g. "ledger.TryDecrement"
	Kind      Kind
	ProductID string
	Err       error
}

func (e *Error) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.ProductID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err for op, deriving the kind from the sentinel it wraps.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindOf(err), Err: err}
}

// ProductError wraps err for op and records the product it concerns.
func ProductError(op, productID string, err error) *Error {
	return &Error{Op: op, Kind: KindOf(err), ProductID: productID, Err: err}
}

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPayment):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrProductNotFound):
		return KindAvailability
	case errors.Is(err, ErrPaymentDeclined):
		return KindPayment
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	}
	return KindUnknown
}

// IsRecoverable reports whether the caller can recover locally by re-presenting the
// cart or catalog to the user.
func IsRecoverable(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindAvailability
}

// IsRetryable reports whether the same request may succeed if simply retried.
func IsRetryable(err error) bool {
	return KindOf(err) == KindPayment
}

// ProductIDOf returns the first product id recorded on an *Error in err's chain.
func ProductIDOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.ProductID != "" {
			return e.ProductID
		}
		err = e.Err
	}
	return ""
}
