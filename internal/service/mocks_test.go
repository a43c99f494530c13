package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/notify"
	"github.com/fjod/go_storefront/internal/orders"
	repository "github.com/fjod/go_storefront/internal/repository/mongo"
)

type mockCartRepository struct {
	m       sync.RWMutex
	carts   map[string]domain.Cart
	err     error
	upserts int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]domain.Cart{}}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	c.Lines = slices.Clone(c.Lines)
	return &c, nil
}

func (m *mockCartRepository) UpsertCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserts++
	stored := *c
	stored.Lines = slices.Clone(c.Lines)
	m.carts[c.UserID] = stored
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockCartRepository) CreateIndexes(context.Context) error { return nil }

type mockCache struct {
	m       sync.RWMutex
	carts   map[string]*domain.Cart
	report  *analytics.Report
	err     error
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, userID string, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[userID] = c
	return m.err
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	delete(m.carts, userID)
	return m.err
}

func (m *mockCache) GetReport(context.Context) (*analytics.Report, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.report == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.report, nil
}

func (m *mockCache) SetReport(_ context.Context, r analytics.Report) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.report = &r
	return nil
}

func (m *mockCache) cachedReport() *analytics.Report {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.report
}

type mockCatalog struct {
	products map[string]domain.Product
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

type mockUsers struct {
	users []domain.User
}

func (m *mockUsers) ListUsers(context.Context) ([]domain.User, error) {
	return m.users, nil
}

// mockOrderStore serializes UpdateOrder with a mutex the way the SQL store
// serializes it with a row lock.
type mockOrderStore struct {
	m         sync.Mutex
	orders    map[string]domain.Order
	createErr error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: map[string]domain.Order{}}
}

func (m *mockOrderStore) CreateOrder(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.orders[o.ID]; ok {
		return orders.ErrDuplicateID
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *mockOrderStore) UpdateOrder(_ context.Context, id string, fn orders.UpdateFunc) (domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	current, ok := m.orders[id]
	if !ok {
		return domain.Order{}, orders.ErrOrderNotFound
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	m.orders[id] = next
	return next, nil
}

func (m *mockOrderStore) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return &o, nil
}

func (m *mockOrderStore) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		o := o // per-iteration copy (go1.22+ loopvar semantics)
		if o.UserID == userID {
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) ListOrders(_ context.Context, from, to time.Time) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		o := o // per-iteration copy (go1.22+ loopvar semantics)
		if (!from.IsZero() && o.CreatedAt.Before(from)) || (!to.IsZero() && !o.CreatedAt.Before(to)) {
			continue
		}
		out = append(out, &o)
	}
	return out, nil
}

type mockPublisher struct {
	m      sync.Mutex
	events []events.OrderEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

type mockNotifier struct {
	sent   []string
	result notify.Result
}

func (m *mockNotifier) SendOrderConfirmation(_ context.Context, email string, _ domain.Order) notify.Result {
	m.sent = append(m.sent, email)
	return m.result
}

var errBoom = errors.New("boom")
