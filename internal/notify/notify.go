// Package notify delivers order confirmations. Delivery is best effort: checkout logs
// a failed notification and carries on.
package notify

import (
	"context"
	"errors"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
)

// Notifier sends the confirmation for order to email.
type Notifier interface {
	Notify(ctx context.Context, email string, order domain.Order) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, email string, order domain.Order) error

func (f NotifierFunc) Notify(ctx context.Context, email string, order domain.Order) error {
	return f(ctx, email, order)
}

type multi []Notifier

// Multi fans a notification out to every non-nil notifier and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	var m multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multi) Notify(ctx context.Context, email string, order domain.Order) error {
	var err error
	for _, n := range m {
		err = errors.Join(err, n.Notify(ctx, email, order))
	}
	return err
}
