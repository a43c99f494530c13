package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/notify"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/pricing"
)

type PlaceOrderRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

// PlaceOrderResult carries the persisted order plus any side effects that
// failed after persistence. Warnings never undo the order.
type PlaceOrderResult struct {
	Order    domain.Order `json:"order"`
	Warnings []string     `json:"warnings,omitempty"`
}

type CheckoutService struct {
	carts     *CartService
	orders    orders.Store
	publisher events.Publisher
	notifier  notify.Notifier
	policy    domain.PricingPolicy
	currency  string
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewCheckoutService(
	carts *CartService,
	store orders.Store,
	publisher events.Publisher,
	notifier notify.Notifier,
	policy domain.PricingPolicy,
	currency string,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		orders:    store,
		publisher: publisher,
		notifier:  notifier,
		policy:    policy,
		currency:  currency,
		log:       log,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// PlaceOrder freezes the caller's cart into an order priced with the same policy
// the cart summary shows, persists it and then runs the follow-up side effects.
func (s *CheckoutService) PlaceOrder(ctx context.Context, p domain.Principal, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if p.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	c, err := s.carts.GetCart(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:              s.newID(),
		UserID:          p.UserID,
		UserEmail:       p.UserEmail,
		Items:           slices.Clone(c.Lines),
		Pricing:         pricing.PriceLines(c.Lines, s.policy),
		Currency:        s.currency,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.CreateOrder(ctx, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	log := s.log.With(zap.String("order_id", order.ID), zap.String("user_id", order.UserID))
	log.Info("order placed", zap.Int64("total", int64(order.Pricing.Total)))

	result := &PlaceOrderResult{Order: order}

	if err := s.publisher.Publish(ctx, events.NewOrderEvent(events.OrderCreated, order)); err != nil {
		log.Warn("order event not published", zap.Error(err))
		result.Warnings = append(result.Warnings, "order event not published")
	}
	if err := s.carts.ClearCart(ctx, p.UserID); err != nil {
		log.Warn("cart not cleared after checkout", zap.Error(err))
		result.Warnings = append(result.Warnings, "cart could not be cleared")
	}
	if res := s.notifier.SendOrderConfirmation(ctx, order.UserEmail, order); !res.Success {
		log.Warn("confirmation email not sent", zap.String("reason", res.Message))
		result.Warnings = append(result.Warnings, "confirmation email not sent: "+res.Message)
	}

	return result, nil
}

func validateAddress(a domain.ShippingAddress) error {
	var missing []string
	for field, v := range map[string]string{
		"full_name":   a.FullName,
		"line1":       a.Line1,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(missing, ", "))
	}
	return nil
}
