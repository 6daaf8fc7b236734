package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

const (
	catalogKeyPrefix  = "catalog:"
	catalogTTL        = 5 * time.Minute
	idempotencyKeyTTL = 30 * time.Second
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) GetCatalog(ctx context.Context, vendorID string) ([]domain.Product, error) {
	raw, err := r.client.Get(ctx, catalogKeyPrefix+vendorID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("unmarshal cached catalog: %w", err)
	}
	return products, nil
}

func (r *RedisAdapter) SetCatalog(ctx context.Context, vendorID string, products []domain.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return r.client.Set(ctx, catalogKeyPrefix+vendorID, raw, catalogTTL).Err()
}

func (r *RedisAdapter) InvalidateCatalog(ctx context.Context, vendorID string) error {
	return r.client.Del(ctx, catalogKeyPrefix+vendorID).Err()
}
