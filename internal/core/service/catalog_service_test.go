package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rl1809/condo-market/internal/core/domain"
)

func TestVendors_CategoryAndSearch(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	other := domain.Vendor{
		ID:          "vendor-2",
		Name:        "Passeios do Carlos",
		Description: "Passeio com pets do condomínio",
		Category:    domain.CategoryServices,
		Phone:       "11912345678",
	}
	if err := s.store.Set(ctx, vendorPath(other.ID), other, false); err != nil {
		t.Fatalf("seed vendor: %v", err)
	}

	all, err := s.catalog.Vendors(ctx, "Todos", "")
	if err != nil {
		t.Fatalf("list vendors: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 vendors, got %d", len(all))
	}

	food, err := s.catalog.Vendors(ctx, domain.CategoryFood, "")
	if err != nil {
		t.Fatalf("list vendors: %v", err)
	}
	if len(food) != 1 || food[0].ID != "vendor-1" {
		t.Errorf("expected only vendor-1 in %s, got %+v", domain.CategoryFood, food)
	}

	found, err := s.catalog.Vendors(ctx, "", "PETS")
	if err != nil {
		t.Fatalf("search vendors: %v", err)
	}
	if len(found) != 1 || found[0].ID != "vendor-2" {
		t.Errorf("expected vendor-2 for search 'PETS', got %+v", found)
	}
}

func TestProducts_CachedAfterFirstRead(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	products, err := s.catalog.Products(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}

	// Prime the cache directly and change the store underneath: the
	// cached catalog must be served.
	if err := s.cache.SetCatalog(ctx, "vendor-1", products); err != nil {
		t.Fatalf("set catalog cache: %v", err)
	}
	if err := s.store.Delete(ctx, productPath("vendor-1", "p-a")); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	cached, err := s.catalog.Products(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(cached) != 3 {
		t.Errorf("expected cached catalog of 3, got %d", len(cached))
	}
	for _, p := range cached {
		if p.VendorID != "vendor-1" {
			t.Errorf("cached product missing vendor id: %+v", p)
		}
	}
}

func TestProducts_DetachedFromCallerContext(t *testing.T) {
	s := newTestStack(t)

	// The shared catalog flight runs on its own bounded context, so a
	// caller arriving with a dead context still gets the catalog
	// instead of failing every waiter.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products, err := s.catalog.Products(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("list products with cancelled caller: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("expected 3 products, got %d", len(products))
	}
}

func TestSaveProduct_AssignsIDAndInvalidates(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	if err := s.cache.SetCatalog(ctx, "vendor-1", testProducts()); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	saved, err := s.catalog.SaveProduct(ctx, domain.Product{
		VendorID: "vendor-1",
		Name:     "Torta de limão",
		Price:    domain.NewPrice(decimal.RequireFromString("18.00")),
	})
	if err != nil {
		t.Fatalf("save product: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected assigned product id")
	}

	products, err := s.catalog.Products(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 4 {
		t.Errorf("expected invalidated cache and 4 products, got %d", len(products))
	}
}

func TestDeleteProduct(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	if err := s.catalog.DeleteProduct(ctx, "vendor-1", "p-a"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	products, err := s.catalog.Products(ctx, "vendor-1")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products after delete, got %d", len(products))
	}
}
