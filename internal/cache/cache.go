package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// ReportCache holds the most recent analytics report published by the worker.
type ReportCache interface {
	GetReport(ctx context.Context) (*analytics.Report, error)
	SetReport(ctx context.Context, r analytics.Report) error
}

var ErrCacheMiss = errors.New("cache miss")
