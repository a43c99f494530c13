package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/orders"
)

type UserLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type AnalyticsConfig struct {
	// Days is the width of the current window; the previous window has the same width.
	Days     int
	Location *time.Location
	Options  analytics.Options
}

type AnalyticsService struct {
	orders  orders.Store
	catalog catalog.Reader
	users   UserLister
	cache   cache.ReportCache
	cfg     AnalyticsConfig
	log     *zap.Logger
	now     func() time.Time
}

func NewAnalyticsService(
	store orders.Store,
	catalog catalog.Reader,
	users UserLister,
	cache cache.ReportCache,
	cfg AnalyticsConfig,
	log *zap.Logger,
) *AnalyticsService {
	if cfg.Days <= 0 {
		cfg.Days = 30
	}
	return &AnalyticsService{
		orders:  store,
		catalog: catalog,
		users:   users,
		cache:   cache,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// LoadInput reads the complete order, product and user collections.
func (s *AnalyticsService) LoadInput(ctx context.Context) (analytics.Input, error) {
	all, err := s.orders.ListOrders(ctx, time.Time{}, time.Time{})
	if err != nil {
		return analytics.Input{}, fmt.Errorf("load orders: %w", err)
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return analytics.Input{}, fmt.Errorf("load products: %w", err)
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return analytics.Input{}, fmt.Errorf("load users: %w", err)
	}

	in := analytics.Input{Orders: make([]domain.Order, 0, len(all)), Products: products, Users: users}
	for _, o := range all {
		in.Orders = append(in.Orders, *o)
	}
	return in, nil
}

// Compute builds the period-over-period report ending today.
func (s *AnalyticsService) Compute(ctx context.Context, in analytics.Input) (analytics.Report, error) {
	current := analytics.LastDays(s.now(), s.cfg.Days, s.cfg.Location)
	return analytics.BuildReport(ctx, in, current, analytics.PreviousWindow(current), s.cfg.Options)
}

// Report serves the cached report unless fresh is set or nothing is cached yet.
func (s *AnalyticsService) Report(ctx context.Context, p domain.Principal, fresh bool) (*analytics.Report, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	if !fresh {
		rep, err := s.cache.GetReport(ctx)
		if err == nil {
			return rep, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("report cache get error", zap.Error(err))
		}
	}

	in, err := s.LoadInput(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := s.Compute(ctx, in)
	if err != nil {
		return nil, err
	}
	s.store(ctx, rep)
	return &rep, nil
}

// ReportQuery narrows or reshapes a report. Zero fields keep the configured
// value. From and To give the current window explicitly and must be set together;
// otherwise the window is the last Days calendar days in Location.
type ReportQuery struct {
	From             time.Time
	To               time.Time
	Days             int
	Location         *time.Location
	MaxDays          int
	TopCategories    int
	ExcludeCancelled bool
}

// ReportFor computes a report for the caller's window and options. It always
// reads the collections and never reads or writes the cached report.
func (s *AnalyticsService) ReportFor(ctx context.Context, p domain.Principal, q ReportQuery) (*analytics.Report, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	current, err := s.window(q)
	if err != nil {
		return nil, err
	}
	opts, err := s.options(q)
	if err != nil {
		return nil, err
	}

	in, err := s.LoadInput(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := analytics.BuildReport(ctx, in, current, analytics.PreviousWindow(current), opts)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *AnalyticsService) window(q ReportQuery) (analytics.Window, error) {
	loc := q.Location
	if loc == nil {
		loc = s.cfg.Location
	}

	if !q.From.IsZero() || !q.To.IsZero() {
		if q.From.IsZero() || q.To.IsZero() {
			return analytics.Window{}, fmt.Errorf("%w: from and to must be given together", analytics.ErrAggregationInput)
		}
		if !q.From.Before(q.To) {
			return analytics.Window{}, fmt.Errorf("%w: from %s is not before to %s", analytics.ErrAggregationInput,
				q.From.Format(time.RFC3339), q.To.Format(time.RFC3339))
		}
		return analytics.Window{Start: q.From, End: q.To, Location: loc}, nil
	}

	days := s.cfg.Days
	if q.Days < 0 {
		return analytics.Window{}, fmt.Errorf("%w: days %d is negative", analytics.ErrAggregationInput, q.Days)
	}
	if q.Days > 0 {
		days = q.Days
	}
	return analytics.LastDays(s.now(), days, loc), nil
}

func (s *AnalyticsService) options(q ReportQuery) (analytics.Options, error) {
	if q.MaxDays < 0 || q.TopCategories < 0 {
		return analytics.Options{}, fmt.Errorf("%w: max_days and top must not be negative", analytics.ErrAggregationInput)
	}
	opts := s.cfg.Options
	if q.MaxDays > 0 {
		opts.MaxDays = q.MaxDays
	}
	if q.TopCategories > 0 {
		opts.TopCategories = q.TopCategories
	}
	if q.ExcludeCancelled {
		opts.ExcludeCancelled = true
	}
	return opts, nil
}

// NewRunner returns a live runner that caches each report it finishes.
func (s *AnalyticsService) NewRunner() *analytics.Runner {
	return analytics.NewRunner(
		s.Compute,
		func(rep analytics.Report) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.store(ctx, rep)
			s.log.Info("analytics report refreshed",
				zap.Int("orders", rep.Current.Totals.OrderCount),
				zap.Int64("revenue", int64(rep.Current.Totals.Revenue)))
		},
		func(err error) {
			s.log.Error("analytics pass failed", zap.Error(err))
		},
	)
}

// OnOrderEvent reloads the full collections and hands them to r. Any pass
// still running for an older event is superseded.
func (s *AnalyticsService) OnOrderEvent(r *analytics.Runner) events.Handler {
	return func(ctx context.Context, e events.OrderEvent) error {
		in, err := s.LoadInput(ctx)
		if err != nil {
			return err
		}
		s.log.Debug("recomputing analytics", zap.String("trigger", string(e.Type)), zap.String("order_id", e.OrderID))
		r.Submit(ctx, in)
		return nil
	}
}

func (s *AnalyticsService) store(ctx context.Context, rep analytics.Report) {
	if err := s.cache.SetReport(ctx, rep); err != nil {
		s.log.Warn("report cache set error", zap.Error(err))
	}
}
