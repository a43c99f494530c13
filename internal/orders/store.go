// Package orders declares the order persistence port.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrDuplicateID   = errors.New("order with this id already exists")
)

// UpdateFunc receives the locked current row and returns its replacement. An
// error aborts the update and leaves the row untouched.
type UpdateFunc func(current domain.Order) (domain.Order, error)

type Store interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	// UpdateOrder runs fn inside a transaction holding a row lock on id.
	UpdateOrder(ctx context.Context, id string, fn UpdateFunc) (domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// ListOrders returns orders created in [from, to). A zero bound is open.
	ListOrders(ctx context.Context, from, to time.Time) ([]*domain.Order, error)
}
