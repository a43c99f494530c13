package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/lifecycle"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/service"
)

type fakeCatalog struct{}

func (fakeCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if id != "p1" {
		return nil, catalog.ErrProductNotFound
	}
	return &domain.Product{ID: "p1", Name: "Tee", Price: 2500}, nil
}

func (fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return []domain.Product{{ID: "p1", Name: "Tee", Price: 2500}}, nil
}

type fakeCart struct {
	lastUser string
	lastKey  domain.VariantKey
	lastQty  int
	err      error
}

func (f *fakeCart) Summary(_ context.Context, userID string) (*service.CartSummary, error) {
	f.lastUser = userID
	return &service.CartSummary{Cart: domain.Cart{UserID: userID}, Pricing: domain.PriceBreakdown{ShippingCost: 500, Total: 500}}, f.err
}

func (f *fakeCart) AddItem(_ context.Context, userID string, req service.AddItemRequest) (*domain.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastUser, f.lastQty = userID, req.Quantity
	return &domain.Cart{UserID: userID}, nil
}

func (f *fakeCart) UpdateQuantity(_ context.Context, userID string, key domain.VariantKey, q int) (*domain.Cart, error) {
	f.lastUser, f.lastKey, f.lastQty = userID, key, q
	return &domain.Cart{UserID: userID}, f.err
}

func (f *fakeCart) RemoveItem(_ context.Context, userID string, key domain.VariantKey) (*domain.Cart, error) {
	f.lastUser, f.lastKey = userID, key
	return &domain.Cart{UserID: userID}, f.err
}

func (f *fakeCart) ClearCart(_ context.Context, userID string) error {
	f.lastUser = userID
	return f.err
}

type fakeCheckout struct {
	err error
}

func (f *fakeCheckout) PlaceOrder(_ context.Context, p domain.Principal, _ service.PlaceOrderRequest) (*service.PlaceOrderResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.PlaceOrderResult{
		Order:    domain.Order{ID: "ord-1", UserID: p.UserID, Status: domain.OrderStatusPending},
		Warnings: []string{"confirmation email not sent: smtp down"},
	}, nil
}

type fakeOrders struct {
	err        error
	lastStatus domain.OrderStatus
	lastFrom   time.Time
}

func (f *fakeOrders) GetOrder(_ context.Context, _ domain.Principal, id string) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Order{ID: id}, nil
}

func (f *fakeOrders) ListMyOrders(context.Context, domain.Principal) ([]*domain.Order, error) {
	return nil, f.err
}

func (f *fakeOrders) ListOrders(_ context.Context, p domain.Principal, from, _ time.Time) ([]*domain.Order, error) {
	if !p.Admin {
		return nil, service.ErrForbidden
	}
	f.lastFrom = from
	return []*domain.Order{{ID: "ord-1"}}, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, _ domain.Principal, id string, next domain.OrderStatus) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastStatus = next
	return &domain.Order{ID: id, Status: next}, nil
}

func (f *fakeOrders) UpdatePayment(_ context.Context, _ domain.Principal, id string, next domain.PaymentStatus) (*domain.Order, error) {
	return &domain.Order{ID: id, PaymentStatus: next}, f.err
}

func (f *fakeOrders) NextStates(context.Context, domain.Principal, string) (*service.NextStates, error) {
	return &service.NextStates{
		Statuses:        []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusCancelled},
		PaymentStatuses: []domain.PaymentStatus{domain.PaymentStatusPaid, domain.PaymentStatusFailed},
	}, f.err
}

type fakeAnalytics struct {
	fresh bool
	query *service.ReportQuery
}

func (f *fakeAnalytics) ReportFor(_ context.Context, p domain.Principal, q service.ReportQuery) (*analytics.Report, error) {
	if !p.Admin {
		return nil, service.ErrForbidden
	}
	if !q.From.IsZero() && q.To.IsZero() {
		return nil, fmt.Errorf("%w: from and to must be given together", analytics.ErrAggregationInput)
	}
	f.query = &q
	return &analytics.Report{Growth: analytics.GrowthMetrics{Revenue: 50}}, nil
}

func (f *fakeAnalytics) Report(_ context.Context, p domain.Principal, fresh bool) (*analytics.Report, error) {
	if !p.Admin {
		return nil, service.ErrForbidden
	}
	f.fresh = fresh
	return &analytics.Report{Growth: analytics.GrowthMetrics{Revenue: 100}}, nil
}

type fixture struct {
	router    http.Handler
	cart      *fakeCart
	checkout  *fakeCheckout
	orders    *fakeOrders
	analytics *fakeAnalytics
}

func newFixture() *fixture {
	f := &fixture{cart: &fakeCart{}, checkout: &fakeCheckout{}, orders: &fakeOrders{}, analytics: &fakeAnalytics{}}
	timeout := 5 * time.Second
	f.router = NewRouter(
		RouterConfig{RequestTimeout: timeout, MaxRequestBodySize: 1 << 20, Logger: zap.NewNop()},
		Handlers{
			Products:  NewProductHandler(fakeCatalog{}, timeout),
			Cart:      NewCartHandler(f.cart, timeout),
			Checkout:  NewCheckoutHandler(f.checkout, timeout),
			Orders:    NewOrdersHandler(f.orders, timeout),
			Analytics: NewAnalyticsHandler(f.analytics, timeout),
		},
	)
	return f
}

type principal struct {
	userID string
	admin  bool
}

var (
	anonymous = principal{}
	shopper   = principal{userID: "user-1"}
	admin     = principal{userID: "admin-1", admin: true}
)

func (f *fixture) do(t *testing.T, as principal, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as.userID != "" {
		req.Header.Set(HeaderUserID, as.userID)
		req.Header.Set(HeaderUserEmail, as.userID+"@example.com")
	}
	if as.admin {
		req.Header.Set(HeaderUserRole, "admin")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rec := f.do(t, anonymous, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequestID_Propagated(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
}

func TestProducts(t *testing.T) {
	f := newFixture()

	rec := f.do(t, anonymous, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ProductsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Products, 1)

	rec = f.do(t, anonymous, http.MethodGet, "/api/v1/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product_not_found", decodeError(t, rec).Code)
}

func TestCart_RequiresUser(t *testing.T) {
	f := newFixture()
	rec := f.do(t, anonymous, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_GetSummary(t *testing.T) {
	f := newFixture()
	rec := f.do(t, shopper, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", f.cart.lastUser)

	var sum service.CartSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	assert.Equal(t, domain.Money(500), sum.Pricing.Total)
}

func TestCart_AddItemValidation(t *testing.T) {
	f := newFixture()

	rec := f.do(t, shopper, http.MethodPost, "/api/v1/cart/items", service.AddItemRequest{ProductID: "p1", Quantity: 2})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, f.cart.lastQty)

	rec = f.do(t, shopper, http.MethodPost, "/api/v1/cart/items", service.AddItemRequest{ProductID: "p1", Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, shopper, http.MethodPost, "/api/v1/cart/items", map[string]int{"quantity": 1})
	assert.Equal(t, "invalid_product_id", decodeError(t, rec).Code)
}

func TestCart_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: p1", service.ErrInsufficientStock), http.StatusConflict, "insufficient_stock"},
		{service.ErrInvalidVariant, http.StatusBadRequest, "invalid_variant"},
		{catalog.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
		{fmt.Errorf("mongo exploded"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			f := newFixture()
			f.cart.err = tc.err
			rec := f.do(t, shopper, http.MethodPost, "/api/v1/cart/items", service.AddItemRequest{ProductID: "p1", Quantity: 1})
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestCart_UpdateAndRemoveUseVariantKey(t *testing.T) {
	f := newFixture()

	rec := f.do(t, shopper, http.MethodPut, "/api/v1/cart/items/p1", UpdateQuantityRequestDTO{Size: "M", Color: "Red", Quantity: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.VariantKey{ProductID: "p1", Size: "M", Color: "Red"}, f.cart.lastKey)
	assert.Equal(t, 0, f.cart.lastQty)

	rec = f.do(t, shopper, http.MethodDelete, "/api/v1/cart/items/p1?size=L&color=Blue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.VariantKey{ProductID: "p1", Size: "L", Color: "Blue"}, f.cart.lastKey)

	rec = f.do(t, shopper, http.MethodDelete, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCheckout(t *testing.T) {
	f := newFixture()

	rec := f.do(t, shopper, http.MethodPost, "/api/v1/checkout", service.PlaceOrderRequest{PaymentMethod: "card"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var res service.PlaceOrderResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "ord-1", res.Order.ID)
	assert.Len(t, res.Warnings, 1)

	f.checkout.err = service.ErrEmptyCart
	rec = f.do(t, shopper, http.MethodPost, "/api/v1/checkout", service.PlaceOrderRequest{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_cart", decodeError(t, rec).Code)
}

func TestOrders_Customer(t *testing.T) {
	f := newFixture()

	rec := f.do(t, shopper, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = f.do(t, shopper, http.MethodGet, "/api/v1/orders/ord-9", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.orders.err = orders.ErrOrderNotFound
	rec = f.do(t, shopper, http.MethodGet, "/api/v1/orders/ord-9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_UpdateStatus(t *testing.T) {
	f := newFixture()

	rec := f.do(t, admin, http.MethodPatch, "/api/v1/admin/orders/ord-1/status", UpdateStatusRequestDTO{Status: "shipped"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderStatusShipped, f.orders.lastStatus)

	rec = f.do(t, admin, http.MethodPatch, "/api/v1/admin/orders/ord-1/status", UpdateStatusRequestDTO{Status: "returned"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decodeError(t, rec).Code)

	f.orders.err = fmt.Errorf("%w: status delivered -> processing", lifecycle.ErrIllegalTransition)
	rec = f.do(t, admin, http.MethodPatch, "/api/v1/admin/orders/ord-1/status", UpdateStatusRequestDTO{Status: "processing"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "illegal_transition", decodeError(t, rec).Code)

	f.orders.err = lifecycle.ErrPaymentNotSettled
	rec = f.do(t, admin, http.MethodPatch, "/api/v1/admin/orders/ord-1/status", UpdateStatusRequestDTO{Status: "delivered"})
	assert.Equal(t, "payment_not_settled", decodeError(t, rec).Code)
}

func TestAdmin_PaymentAndTransitions(t *testing.T) {
	f := newFixture()

	rec := f.do(t, admin, http.MethodPatch, "/api/v1/admin/orders/ord-1/payment", UpdatePaymentRequestDTO{PaymentStatus: "paid"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, admin, http.MethodPatch, "/api/v1/admin/orders/ord-1/payment", UpdatePaymentRequestDTO{PaymentStatus: "refunded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, admin, http.MethodGet, "/api/v1/admin/orders/ord-1/transitions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"statuses":["processing","cancelled"],"payment_statuses":["paid","failed"]}`, rec.Body.String())
}

func TestAdmin_ListOrders(t *testing.T) {
	f := newFixture()

	rec := f.do(t, shopper, http.MethodGet, "/api/v1/admin/orders", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, admin, http.MethodGet, "/api/v1/admin/orders?from=2026-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.orders.lastFrom)

	rec = f.do(t, admin, http.MethodGet, "/api/v1/admin/orders?to=yesterday", nil)
	assert.Equal(t, "invalid_to", decodeError(t, rec).Code)
}

func TestAdmin_Analytics(t *testing.T) {
	f := newFixture()

	rec := f.do(t, admin, http.MethodGet, "/api/v1/admin/analytics?fresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.analytics.fresh)

	rec = f.do(t, shopper, http.MethodGet, "/api/v1/admin/analytics", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, admin, http.MethodGet, "/api/v1/admin/analytics?fresh=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_AnalyticsCustomWindow(t *testing.T) {
	f := newFixture()

	rec := f.do(t, admin, http.MethodGet,
		"/api/v1/admin/analytics?from=2026-03-01&to=2026-04-01&tz=America/Mexico_City&top=3&max_days=7&exclude_cancelled=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.analytics.query)

	q := f.analytics.query
	mx, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	assert.True(t, q.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, mx)), "date-only from is midnight in tz")
	assert.True(t, q.To.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, mx)))
	assert.Equal(t, mx.String(), q.Location.String())
	assert.Equal(t, 3, q.TopCategories)
	assert.Equal(t, 7, q.MaxDays)
	assert.True(t, q.ExcludeCancelled)
	assert.False(t, f.analytics.fresh, "cached path is not used")

	f.analytics.query = nil
	rec = f.do(t, admin, http.MethodGet, "/api/v1/admin/analytics?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, f.analytics.query.Days)
	assert.Nil(t, f.analytics.query.Location)
}

func TestAdmin_AnalyticsCustomWindowErrors(t *testing.T) {
	f := newFixture()

	for path, code := range map[string]string{
		"/api/v1/admin/analytics?tz=Mars/Olympus":        "invalid_tz",
		"/api/v1/admin/analytics?from=yesterday":         "invalid_from",
		"/api/v1/admin/analytics?days=-3":                "invalid_days",
		"/api/v1/admin/analytics?top=many":               "invalid_top",
		"/api/v1/admin/analytics?exclude_cancelled=yes!": "invalid_exclude_cancelled",
		"/api/v1/admin/analytics?from=2026-03-01":        "invalid_window",
	} {
		rec := f.do(t, admin, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, code, decodeError(t, rec).Code, path)
	}

	rec := f.do(t, shopper, http.MethodGet, "/api/v1/admin/analytics?days=7", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
