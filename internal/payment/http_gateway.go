package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPGateway charges cards through a credit card authorizer service:
//
//	POST {"credit_card_number": "1234-5678-9012-3456"}
//	200 authorized, 402 declined, 400 malformed card
type HTTPGateway struct {
	url    string
	client *http.Client
}

// NewHTTPGateway returns a gateway for the authorizer at url. A nil client is replaced
// with one whose transport propagates trace context.
func NewHTTPGateway(url string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPGateway{url: url, client: client}
}

type authorizeRequest struct {
	CreditCardNumber string `json:"credit_card_number"`
}

type authorizeError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (g *HTTPGateway) Charge(ctx context.Context, charge Charge) (Result, error) {
	body, err := json.Marshal(authorizeRequest{CreditCardNumber: dashed(charge.Card.Digits())})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build authorize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to contact payment service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Status: Approved}, nil
	case http.StatusPaymentRequired:
		return Result{Status: Declined, Reason: readReason(resp.Body, "payment was declined")}, nil
	case http.StatusBadRequest:
		return Result{}, fmt.Errorf("%w: %s", domain.ErrInvalidPayment, readReason(resp.Body, "invalid credit card format"))
	default:
		return Result{}, fmt.Errorf("unexpected response from payment service (status %d)", resp.StatusCode)
	}
}

func readReason(r io.Reader, fallback string) string {
	var payload authorizeError
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil || payload.Message == "" {
		return fallback
	}
	return payload.Message
}

// dashed formats 16 digits as four dash-separated groups.
func dashed(digits string) string {
	if len(digits) != 16 {
		return digits
	}
	return digits[0:4] + "-" + digits[4:8] + "-" + digits[8:12] + "-" + digits[12:16]
}
