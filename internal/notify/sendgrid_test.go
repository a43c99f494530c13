package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
)

type fakeSender struct {
	calls int
	last  *mail.SGMailV3
	resp  *rest.Response
	err   error
}

func (f *fakeSender) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.calls++
	f.last = m
	return f.resp, f.err
}

func testOrder() domain.Order {
	return domain.Order{
		ID:       "ord-1",
		Currency: "USD",
		Items: []domain.CartLine{
			{Key: domain.VariantKey{ProductID: "p1", Size: "M", Color: "Red"}, Name: "Tee", UnitPrice: 2500, Quantity: 2},
			{Key: domain.VariantKey{ProductID: "p2"}, UnitPrice: 1000, Quantity: 1},
		},
		Pricing: domain.PriceBreakdown{Subtotal: 6000, ShippingCost: 500, TaxAmount: 960, Total: 7460},
	}
}

func TestSendOrderConfirmation_Success(t *testing.T) {
	s := &fakeSender{resp: &rest.Response{StatusCode: 202}}
	n := newSendGridNotifier(s, "Storefront", "orders@example.com", zap.NewNop())

	res := n.SendOrderConfirmation(context.Background(), "ana@example.com", testOrder())

	assert.True(t, res.Success)
	require.NotNil(t, s.last)
	assert.Equal(t, "Order confirmation #ord-1", s.last.Subject)
	assert.Equal(t, "ana@example.com", s.last.Personalizations[0].To[0].Address)
}

func TestSendOrderConfirmation_Rejected(t *testing.T) {
	s := &fakeSender{resp: &rest.Response{StatusCode: 401, Body: "bad key"}}
	n := newSendGridNotifier(s, "Storefront", "orders@example.com", zap.NewNop())

	res := n.SendOrderConfirmation(context.Background(), "ana@example.com", testOrder())

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "401")
}

func TestSendOrderConfirmation_NoRecipient(t *testing.T) {
	s := &fakeSender{}
	n := newSendGridNotifier(s, "Storefront", "orders@example.com", zap.NewNop())

	res := n.SendOrderConfirmation(context.Background(), "", testOrder())
	assert.False(t, res.Success)
	assert.Zero(t, s.calls)
}

func TestSendOrderConfirmation_BreakerOpens(t *testing.T) {
	s := &fakeSender{err: errors.New("connection refused")}
	n := newSendGridNotifier(s, "Storefront", "orders@example.com", zap.NewNop())

	for i := 0; i < 5; i++ {
		res := n.SendOrderConfirmation(context.Background(), "ana@example.com", testOrder())
		assert.False(t, res.Success)
	}
	res := n.SendOrderConfirmation(context.Background(), "ana@example.com", testOrder())

	assert.Equal(t, "email provider unavailable", res.Message)
	assert.Equal(t, 5, s.calls)
}

func TestConfirmationBody(t *testing.T) {
	body := confirmationBody(testOrder())
	assert.Contains(t, body, "2 x Tee  50.00 USD")
	assert.Contains(t, body, "1 x p2--  10.00 USD")
	assert.Contains(t, body, "Total:    74.60 USD")
}

func TestNoop(t *testing.T) {
	assert.True(t, Noop{}.SendOrderConfirmation(context.Background(), "", domain.Order{}).Success)
}
