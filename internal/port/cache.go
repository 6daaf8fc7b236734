package port

import (
	"context"
	"errors"

	"github.com/rl1809/condo-market/internal/core/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so a failed operation can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// GetCatalog returns a vendor's cached product list, or ErrCacheMiss
	GetCatalog(ctx context.Context, vendorID string) ([]domain.Product, error)

	// SetCatalog caches a vendor's product list
	SetCatalog(ctx context.Context, vendorID string, products []domain.Product) error

	// InvalidateCatalog drops a vendor's cached product list
	InvalidateCatalog(ctx context.Context, vendorID string) error
}
