package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/pkg/circuitbreaker"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridNotifier struct {
	sender   mailSender
	fromName string
	from     string
	breaker  *circuitbreaker.Breaker[*rest.Response]
	log      *zap.Logger
}

func NewSendGridNotifier(apiKey, fromName, from string, log *zap.Logger) *SendGridNotifier {
	return newSendGridNotifier(sendgrid.NewSendClient(apiKey), fromName, from, log)
}

func newSendGridNotifier(sender mailSender, fromName, from string, log *zap.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		sender:   sender,
		fromName: fromName,
		from:     from,
		log:      log,
		breaker: circuitbreaker.New[*rest.Response](circuitbreaker.Settings{
			Name:                "sendgrid",
			ConsecutiveFailures: 5,
			OnStateChange: func(name, from, to string) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from),
					zap.String("to", to))
			},
		}),
	}
}

func (n *SendGridNotifier) SendOrderConfirmation(ctx context.Context, email string, order domain.Order) Result {
	if email == "" {
		return Result{Success: false, Message: "no recipient email on order"}
	}

	subject := fmt.Sprintf("Order confirmation #%s", order.ID)
	body := confirmationBody(order)
	message := mail.NewSingleEmail(
		mail.NewEmail(n.fromName, n.from),
		subject,
		mail.NewEmail(order.ShippingAddress.FullName, email),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	response, err := n.breaker.Execute(func() (*rest.Response, error) {
		resp, err := n.sender.SendWithContext(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("sendgrid send error: %w", err)
		}
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("sendgrid send failed: status=%d", resp.StatusCode)
		}
		return resp, nil
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return Result{Success: false, Message: "email provider unavailable"}
	}
	if err != nil {
		n.log.Warn("order confirmation not sent", zap.String("order_id", order.ID), zap.Error(err))
		return Result{Success: false, Message: err.Error()}
	}
	if response.StatusCode >= 400 {
		n.log.Warn("order confirmation rejected",
			zap.String("order_id", order.ID),
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body))
		return Result{Success: false, Message: fmt.Sprintf("sendgrid rejected message: status=%d", response.StatusCode)}
	}

	n.log.Info("order confirmation sent", zap.String("order_id", order.ID), zap.Int("status", response.StatusCode))
	return Result{Success: true, Message: "confirmation sent"}
}

func confirmationBody(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", o.ID)
	for _, it := range o.Items {
		name := it.Name
		if name == "" {
			name = it.Key.String()
		}
		fmt.Fprintf(&b, "%d x %s  %s %s\n", it.Quantity, name, it.LineTotal(), o.Currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s %s\n", o.Pricing.Subtotal, o.Currency)
	fmt.Fprintf(&b, "Shipping: %s %s\n", o.Pricing.ShippingCost, o.Currency)
	fmt.Fprintf(&b, "Tax:      %s %s\n", o.Pricing.TaxAmount, o.Currency)
	fmt.Fprintf(&b, "Total:    %s %s\n", o.Pricing.Total, o.Currency)
	return b.String()
}
