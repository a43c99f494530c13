// Package notify sends customer-facing order notifications.
package notify

import (
	"context"

	"github.com/fjod/go_storefront/internal/domain"
)

// Result reports delivery outcome. Notification failures never roll back an
// order; callers surface Message as a warning.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email string, order domain.Order) Result
}

// Noop accepts every notification. Used when no email provider is configured.
type Noop struct{}

func (Noop) SendOrderConfirmation(context.Context, string, domain.Order) Result {
	return Result{Success: true, Message: "notifications disabled"}
}
