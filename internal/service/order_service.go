package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/lifecycle"
	"github.com/fjod/go_storefront/internal/orders"
)

// NextStates lists what an admin may move an order to.
type NextStates struct {
	Statuses        []domain.OrderStatus   `json:"statuses"`
	PaymentStatuses []domain.PaymentStatus `json:"payment_statuses"`
}

type OrderService struct {
	store     orders.Store
	lifecycle lifecycle.OrderLifecycle
	publisher events.Publisher
	log       *zap.Logger
}

func NewOrderService(store orders.Store, lc lifecycle.OrderLifecycle, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{store: store, lifecycle: lc, publisher: publisher, log: log}
}

// GetOrder returns the order if p owns it or is an admin.
func (s *OrderService) GetOrder(ctx context.Context, p domain.Principal, id string) (*domain.Order, error) {
	if p.UserID == "" {
		return nil, ErrUnauthenticated
	}
	o, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Admin && o.UserID != p.UserID {
		return nil, orders.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, p domain.Principal) ([]*domain.Order, error) {
	if p.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListOrdersByUserID(ctx, p.UserID)
}

func (s *OrderService) ListOrders(ctx context.Context, p domain.Principal, from, to time.Time) ([]*domain.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("invalid range: from %s is after to %s", from, to)
	}
	return s.store.ListOrders(ctx, from, to)
}

func (s *OrderService) UpdateStatus(ctx context.Context, p domain.Principal, id string, next domain.OrderStatus) (*domain.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	o, err := s.store.UpdateOrder(ctx, id, func(current domain.Order) (domain.Order, error) {
		return s.lifecycle.TransitionStatus(current, next)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_id", id),
		zap.String("status", next.String()),
		zap.String("by", p.UserID))
	s.publish(ctx, events.OrderStatusChanged, o)
	return &o, nil
}

func (s *OrderService) UpdatePayment(ctx context.Context, p domain.Principal, id string, next domain.PaymentStatus) (*domain.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	o, err := s.store.UpdateOrder(ctx, id, func(current domain.Order) (domain.Order, error) {
		return s.lifecycle.TransitionPayment(current, next)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order payment changed",
		zap.String("order_id", id),
		zap.String("payment_status", next.String()),
		zap.String("by", p.UserID))
	s.publish(ctx, events.OrderPaymentChanged, o)
	return &o, nil
}

func (s *OrderService) NextStates(ctx context.Context, p domain.Principal, id string) (*NextStates, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	o, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &NextStates{
		Statuses:        s.lifecycle.NextStatuses(*o),
		PaymentStatuses: s.lifecycle.NextPaymentStatuses(*o),
	}, nil
}

// publish is best effort; the store already holds the new state.
func (s *OrderService) publish(ctx context.Context, t events.EventType, o domain.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(t, o)); err != nil {
		s.log.Warn("order event not published", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func requireAdmin(p domain.Principal) error {
	if p.UserID == "" {
		return ErrUnauthenticated
	}
	if !p.Admin {
		return ErrForbidden
	}
	return nil
}
