// Package payment defines the charge contract checkout depends on and the gateways
// that implement it.
package payment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"

	"github.com/shopspring/decimal"
)

// Status is the outcome of a charge.
type Status string

const (
	Approved Status = "approved"
	Declined Status = "declined"
)

// Result is returned by a gateway for every charge it processed.
type Result struct {
	Status Status
	Reason string
}

func (r Result) Approved() bool { return r.Status == Approved }

// Card holds the payment details entered at checkout.
type Card struct {
	Holder string
	Number string // 16 digits, spaces or dashes allowed
	Expiry string // MM/YY
	CVV    string
}

// Charge is a request to take Amount from Card.
type Charge struct {
	Amount decimal.Decimal
	Card   Card
}

// Gateway charges cards. An error means the gateway could not give an answer.
type Gateway interface {
	Charge(ctx context.Context, charge Charge) (Result, error)
}

var (
	numberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3}$`)
)

// ValidateCard checks the format of c. Errors wrap domain.ErrInvalidPayment.
func ValidateCard(c Card) error {
	if !numberPattern.MatchString(c.Digits()) {
		return fmt.Errorf("%w: card number must be 16 digits", domain.ErrInvalidPayment)
	}
	if !expiryPattern.MatchString(c.Expiry) {
		return fmt.Errorf("%w: expiry date must be in MM/YY format", domain.ErrInvalidPayment)
	}
	if month := c.Expiry[:2]; month < "01" || month > "12" {
		return fmt.Errorf("%w: expiry month %s is out of range", domain.ErrInvalidPayment, month)
	}
	if !cvvPattern.MatchString(c.CVV) {
		return fmt.Errorf("%w: CVV must be 3 digits", domain.ErrInvalidPayment)
	}
	return nil
}

// Digits returns the card number without separators.
func (c Card) Digits() string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, c.Number)
}

// Masked returns the number with all but the last four digits hidden, for logs.
func (c Card) Masked() string {
	d := c.Digits()
	if len(d) < 4 {
		return "****"
	}
	return "**** **** **** " + d[len(d)-4:]
}
