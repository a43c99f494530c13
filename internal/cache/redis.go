package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/domain"
)

const reportKey = "analytics:report:latest"

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

var (
	_ CartCache   = (*RedisCache)(nil)
	_ ReportCache = (*RedisCache)(nil)
)

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := r.getJSON(ctx, cacheKey(userID), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Set stores the cart with a jittered TTL so entries written together do not
// expire together.
func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.setJSON(ctx, cacheKey(userID), cart, r.baseTTL+jitter)
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) GetReport(ctx context.Context) (*analytics.Report, error) {
	var rep analytics.Report
	if err := r.getJSON(ctx, reportKey, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// SetReport overwrites the latest report. It never expires; the worker replaces
// it on every recomputation.
func (r *RedisCache) SetReport(ctx context.Context, rep analytics.Report) error {
	return r.setJSON(ctx, reportKey, rep, 0)
}

func (r *RedisCache) getJSON(ctx context.Context, key string, v any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
