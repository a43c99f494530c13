// Package catalog declares the read-only product catalog port.
package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Reader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
