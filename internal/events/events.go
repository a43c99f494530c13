// Package events carries order lifecycle notifications over Kafka.
package events

import (
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type EventType string

const (
	OrderCreated        EventType = "order.created"
	OrderStatusChanged  EventType = "order.status_changed"
	OrderPaymentChanged EventType = "order.payment_changed"
)

const eventTypeHeader = "event_type"

// OrderEvent is a notification only. Consumers reload state from the store
// rather than rebuilding it from events.
type OrderEvent struct {
	Type          EventType            `json:"type"`
	OrderID       string               `json:"order_id"`
	UserID        string               `json:"user_id"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Total         domain.Money         `json:"total"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewOrderEvent describes o after a change of the given type.
func NewOrderEvent(t EventType, o domain.Order) OrderEvent {
	at := o.UpdatedAt
	if at.IsZero() {
		at = o.CreatedAt
	}
	return OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Pricing.Total,
		OccurredAt:    at,
	}
}
