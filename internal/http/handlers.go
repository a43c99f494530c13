package http

import (
	"context"
	"time"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

// Service surfaces consumed by the handlers. *service.CartService and friends
// satisfy them; tests pass fakes.

type CartAPI interface {
	Summary(ctx context.Context, userID string) (*service.CartSummary, error)
	AddItem(ctx context.Context, userID string, req service.AddItemRequest) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID string, key domain.VariantKey, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, key domain.VariantKey) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CheckoutAPI interface {
	PlaceOrder(ctx context.Context, p domain.Principal, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error)
}

type OrdersAPI interface {
	GetOrder(ctx context.Context, p domain.Principal, id string) (*domain.Order, error)
	ListMyOrders(ctx context.Context, p domain.Principal) ([]*domain.Order, error)
	ListOrders(ctx context.Context, p domain.Principal, from, to time.Time) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, p domain.Principal, id string, next domain.OrderStatus) (*domain.Order, error)
	UpdatePayment(ctx context.Context, p domain.Principal, id string, next domain.PaymentStatus) (*domain.Order, error)
	NextStates(ctx context.Context, p domain.Principal, id string) (*service.NextStates, error)
}

type AnalyticsAPI interface {
	Report(ctx context.Context, p domain.Principal, fresh bool) (*analytics.Report, error)
	ReportFor(ctx context.Context, p domain.Principal, q service.ReportQuery) (*analytics.Report, error)
}

var (
	_ CartAPI      = (*service.CartService)(nil)
	_ CheckoutAPI  = (*service.CheckoutService)(nil)
	_ OrdersAPI    = (*service.OrderService)(nil)
	_ AnalyticsAPI = (*service.AnalyticsService)(nil)
)
