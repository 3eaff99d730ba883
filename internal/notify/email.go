package notify

import (
	"context"
	"errors"
	"strings"
	"text/template"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"

	"go.uber.org/zap"
)

const sender = "QuickShop <noreply@quickshop.example.com>"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`To: {{.To}}
From: {{.From}}
Subject: {{.Subject}}
------------------------------------
Hi there,

Thank you for your order! Your order #{{.OrderID}} has been placed successfully.

Order Details:
{{range .Lines}}- {{.Name}} (x{{.Quantity}}): ${{.Subtotal}}
{{end}}
Total Amount: ${{.Total}}
Order Date: {{.Date}}

We'll notify you when your order ships.

Thanks for shopping with QuickShop!
`))

type emailLine struct {
	Name     string
	Quantity int
	Subtotal string
}

type emailView struct {
	To, From, Subject string
	OrderID           string
	Lines             []emailLine
	Total             string
	Date              string
}

// Email is a rendered confirmation message.
type Email struct {
	To      string
	From    string
	Subject string
	Body    string
}

// RenderConfirmation builds the confirmation email for order.
func RenderConfirmation(to string, order domain.Order) (Email, error) {
	if to == "" {
		return Email{}, errors.New("notify: empty recipient")
	}

	view := emailView{
		To:      to,
		From:    sender,
		Subject: "Your QuickShop Order Confirmation (#" + order.ID + ")",
		OrderID: order.ID,
		Total:   order.TotalAmount.StringFixed(2),
		Date:    order.OrderDate.Format("2006-01-02"),
	}
	for _, item := range order.Items {
		view.Lines = append(view.Lines, emailLine{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}

	var body strings.Builder
	if err := confirmationTmpl.Execute(&body, view); err != nil {
		return Email{}, err
	}
	return Email{To: to, From: sender, Subject: view.Subject, Body: body.String()}, nil
}

// EmailNotifier renders the confirmation email and writes it to the log instead of
// handing it to a mail transport.
type EmailNotifier struct {
	logger observability.Logger
}

func NewEmailNotifier(logger observability.Logger) *EmailNotifier {
	return &EmailNotifier{logger: observability.LoggerOrNop(logger)}
}

func (n *EmailNotifier) Notify(ctx context.Context, email string, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := RenderConfirmation(email, order)
	if err != nil {
		return err
	}

	n.logger.Info("📧 Order confirmation email",
		zap.String("order_id", order.ID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
