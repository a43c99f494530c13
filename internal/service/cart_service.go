package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	repository "github.com/fjod/go_storefront/internal/repository/mongo"
)

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// CartSummary is the cart as displayed, priced with the same policy checkout uses.
type CartSummary struct {
	Cart      domain.Cart           `json:"cart"`
	ItemCount int                   `json:"item_count"`
	Pricing   domain.PriceBreakdown `json:"pricing"`
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Reader
	policy  domain.PricingPolicy
	log     *zap.Logger
	now     func() time.Time
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(
	repo repository.CartRepository,
	cache cache.CartCache,
	catalog catalog.Reader,
	policy domain.PricingPolicy,
	log *zap.Logger,
) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// GetCart returns the stored cart, or an empty one for a user without a cart.
// The returned value must be treated as read-only.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		c, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			now := s.now().UTC()
			return &domain.Cart{UserID: userID, Lines: []domain.CartLine{}, CreatedAt: now, UpdatedAt: now}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// filled before returning so a following mutation's invalidate wins
		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if errSet := s.cache.Set(setCtx, userID, c); errSet != nil {
			s.log.Warn("cache set error", zap.String("user_id", userID), zap.Error(errSet))
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *CartService) Summary(ctx context.Context, userID string) (*CartSummary, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CartSummary{
		Cart:      *c,
		ItemCount: c.ItemCount(),
		Pricing:   pricing.Price(*c, s.policy),
	}, nil
}

// AddItem snapshots the catalog price and display fields into a new line and
// merges it into the cart.
func (s *CartService) AddItem(ctx context.Context, userID string, req AddItemRequest) (*domain.Cart, error) {
	if req.Quantity <= 0 {
		return nil, cart.ErrInvalidQuantity
	}
	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.HasVariant(req.Size, req.Color) {
		return nil, fmt.Errorf("%w: %s size=%q color=%q", ErrInvalidVariant, product.ID, req.Size, req.Color)
	}

	current, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := domain.VariantKey{ProductID: product.ID, Size: req.Size, Color: req.Color}
	inCart := reservedQuantity(*current, product.ID)
	if inCart+req.Quantity > product.Stock {
		return nil, fmt.Errorf("%w: %s has %d, cart wants %d", ErrInsufficientStock, product.ID, product.Stock, inCart+req.Quantity)
	}

	line := domain.CartLine{
		Key:       key,
		UnitPrice: product.Price,
		Quantity:  req.Quantity,
		Name:      product.Name,
		Image:     product.Image,
		Category:  product.Category,
	}
	return s.apply(ctx, *current, cart.AddItem{Line: line})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID string, key domain.VariantKey, quantity int) (*domain.Cart, error) {
	current, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing, ok := cart.Lookup(*current, key); ok && quantity > existing.Quantity {
		product, err := s.catalog.GetProduct(ctx, key.ProductID)
		if err != nil {
			return nil, err
		}
		wanted := reservedQuantity(*current, key.ProductID) - existing.Quantity + quantity
		if wanted > product.Stock {
			return nil, fmt.Errorf("%w: %s has %d, cart wants %d", ErrInsufficientStock, product.ID, product.Stock, wanted)
		}
	}
	return s.apply(ctx, *current, cart.UpdateQuantity{Key: key, Quantity: quantity})
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, key domain.VariantKey) (*domain.Cart, error) {
	current, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, *current, cart.RemoveItem{Key: key})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		s.log.Error("repo delete cart error", zap.String("user_id", userID), zap.Error(errDelete))
		return errDelete
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) apply(ctx context.Context, current domain.Cart, a cart.Action) (*domain.Cart, error) {
	next, err := cart.Apply(current, a)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertCart(ctx, &next); err != nil {
		s.log.Error("repo upsert cart error",
			zap.String("user_id", current.UserID),
			zap.String("action", cart.Name(a)),
			zap.Error(err))
		return nil, err
	}

	s.invalidateCache(current.UserID)
	return &next, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}

// reservedQuantity sums every variant of productID already in the cart; stock
// is tracked per product, not per variant.
func reservedQuantity(c domain.Cart, productID string) int {
	n := 0
	for _, l := range c.Lines {
		if l.Key.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}
