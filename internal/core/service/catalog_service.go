package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

// CatalogService serves the browse side of the marketplace: the vendor
// directory and each vendor's product list, plus the vendor-facing
// product CRUD.
type CatalogService struct {
	store   port.DocumentStore
	cache   port.Cache
	timeout time.Duration
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCatalogService(store port.DocumentStore, cache port.Cache, timeout time.Duration) *CatalogService {
	return &CatalogService{store: store, cache: cache, timeout: timeout}
}

// Vendors lists the directory, optionally narrowed by category and a
// case-insensitive search over name and description.
func (s *CatalogService) Vendors(ctx context.Context, category, search string) ([]domain.Vendor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var filters []port.Filter
	if category != "" && category != "Todos" {
		filters = append(filters, port.Filter{Field: "category", Op: "==", Value: category})
	}
	docs, err := s.store.Query(ctx, "vendors", filters...)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}

	needle := strings.ToLower(search)
	vendors := make([]domain.Vendor, 0, len(docs))
	for _, doc := range docs {
		var vendor domain.Vendor
		if err := doc.Decode(&vendor); err != nil {
			return nil, fmt.Errorf("decode vendor %s: %w", doc.ID, err)
		}
		vendor.ID = doc.ID
		if needle != "" &&
			!strings.Contains(strings.ToLower(vendor.Name), needle) &&
			!strings.Contains(strings.ToLower(vendor.Description), needle) {
			continue
		}
		vendors = append(vendors, vendor)
	}
	return vendors, nil
}

// Vendor returns one vendor profile.
func (s *CatalogService) Vendor(ctx context.Context, vendorID string) (domain.Vendor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fetchVendor(ctx, s.store, vendorID)
}

// Products returns a vendor's catalog through the read cache. Use
// singleflight so one store read serves concurrent misses for the same
// vendor.
func (s *CatalogService) Products(ctx context.Context, vendorID string) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do(vendorID, func() (interface{}, error) {
		// The flight is shared by every concurrent caller, so it runs
		// on its own bounded context: one cancelled request must not
		// fail the waiters.
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		products, err := s.cache.GetCatalog(ctx, vendorID)
		if err == nil {
			for i := range products {
				products[i].VendorID = vendorID
			}
			return products, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			log.Printf("catalog cache get error: %v", err)
		}

		docs, errQuery := s.store.Query(ctx, productsCollection(vendorID))
		if errQuery != nil {
			return nil, fmt.Errorf("query products: %w", errQuery)
		}
		products = make([]domain.Product, 0, len(docs))
		for _, doc := range docs {
			var p domain.Product
			if errDecode := doc.Decode(&p); errDecode != nil {
				return nil, fmt.Errorf("decode product %s: %w", doc.ID, errDecode)
			}
			p.ID = doc.ID
			p.VendorID = vendorID
			products = append(products, p)
		}

		go func() {
			cacheCtx, cacheCancel := context.WithTimeout(context.Background(), time.Second)
			defer cacheCancel()
			if errSet := s.cache.SetCatalog(cacheCtx, vendorID, products); errSet != nil {
				log.Printf("catalog cache set error: %v", errSet)
			}
		}()

		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// Product returns one catalog item.
func (s *CatalogService) Product(ctx context.Context, vendorID, productID string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.store.Get(ctx, productPath(vendorID, productID))
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product %s: %w", productID, err)
	}
	var p domain.Product
	if err := doc.Decode(&p); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", productID, err)
	}
	p.ID = doc.ID
	p.VendorID = vendorID
	return p, nil
}

// SaveProduct creates or updates a catalog item and drops the vendor's
// cached catalog.
func (s *CatalogService) SaveProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := s.store.Set(ctx, productPath(product.VendorID, product.ID), product, false); err != nil {
		return domain.Product{}, fmt.Errorf("save product: %w", err)
	}
	s.invalidate(product.VendorID)
	return product, nil
}

// DeleteProduct removes a catalog item.
func (s *CatalogService) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Delete(ctx, productPath(vendorID, productID)); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(vendorID)
	return nil
}

func (s *CatalogService) invalidate(vendorID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.InvalidateCatalog(ctx, vendorID); err != nil {
		log.Printf("catalog cache invalidate error: %v", err)
	}
}
