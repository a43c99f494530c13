package lifecycle

import (
	"fmt"
	"slices"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

// statusEdges is the only place order status legality is encoded.
var statusEdges = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
}

var paymentEdges = map[domain.PaymentStatus][]domain.PaymentStatus{
	domain.PaymentStatusPending: {domain.PaymentStatusPaid, domain.PaymentStatusFailed},
}

// OrderLifecycle computes the next legal state of an order. It never persists;
// callers apply it inside the store's transactional update.
type OrderLifecycle interface {
	TransitionStatus(o domain.Order, next domain.OrderStatus) (domain.Order, error)
	TransitionPayment(o domain.Order, next domain.PaymentStatus) (domain.Order, error)
	NextStatuses(o domain.Order) []domain.OrderStatus
	NextPaymentStatuses(o domain.Order) []domain.PaymentStatus
}

type DefaultLifecycle struct {
	now func() time.Time
}

// New returns a lifecycle stamping UpdatedAt with now. A nil clock uses time.Now.
func New(now func() time.Time) *DefaultLifecycle {
	if now == nil {
		now = time.Now
	}
	return &DefaultLifecycle{now: now}
}

// TransitionStatus moves o to next. Delivering an order whose payment failed is
// refused with ErrPaymentNotSettled from any status, before adjacency is checked.
func (l *DefaultLifecycle) TransitionStatus(o domain.Order, next domain.OrderStatus) (domain.Order, error) {
	if next == domain.OrderStatusDelivered && o.PaymentStatus == domain.PaymentStatusFailed {
		return o, fmt.Errorf("%w: order %s payment is %s", ErrPaymentNotSettled, o.ID, o.PaymentStatus)
	}
	if !slices.Contains(statusEdges[o.Status], next) {
		return o, fmt.Errorf("%w: status %s -> %s", ErrIllegalTransition, o.Status, next)
	}

	o.Status = next
	o.UpdatedAt = l.now().UTC()
	return o, nil
}

func (l *DefaultLifecycle) TransitionPayment(o domain.Order, next domain.PaymentStatus) (domain.Order, error) {
	if !slices.Contains(paymentEdges[o.PaymentStatus], next) {
		return o, fmt.Errorf("%w: payment %s -> %s", ErrIllegalTransition, o.PaymentStatus, next)
	}

	o.PaymentStatus = next
	o.UpdatedAt = l.now().UTC()
	return o, nil
}

// NextStatuses lists the statuses TransitionStatus would accept for o. Admin
// surfaces offer exactly this list.
func (l *DefaultLifecycle) NextStatuses(o domain.Order) []domain.OrderStatus {
	out := make([]domain.OrderStatus, 0, 2)
	for _, s := range statusEdges[o.Status] {
		if s == domain.OrderStatusDelivered && o.PaymentStatus == domain.PaymentStatusFailed {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (l *DefaultLifecycle) NextPaymentStatuses(o domain.Order) []domain.PaymentStatus {
	return append([]domain.PaymentStatus{}, paymentEdges[o.PaymentStatus]...)
}
