package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/condo-market/internal/adapter/messenger"
	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

// memStore is an in-memory DocumentStore. Transactions hold the store
// lock and stage writes, committing only when the function succeeds.
type memStore struct {
	mu         sync.Mutex
	docs       map[string]json.RawMessage
	failWrites bool
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]json.RawMessage)}
}

func (m *memStore) Get(ctx context.Context, path string) (port.Document, error) {
	if err := ctx.Err(); err != nil {
		return port.Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[path]
	if !ok {
		return port.Document{}, port.ErrNotFound
	}
	return memDocument(path, raw), nil
}

func (m *memStore) Set(ctx context.Context, path string, data any, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("store write failed")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if merge {
		if existing, ok := m.docs[path]; ok {
			raw, err = mergePatch(existing, raw)
			if err != nil {
				return err
			}
		}
	}
	m.docs[path] = raw
	return nil
}

func (m *memStore) Update(ctx context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errors.New("store write failed")
	}
	existing, ok := m.docs[path]
	if !ok {
		return port.ErrNotFound
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	merged, err := mergePatch(existing, patch)
	if err != nil {
		return err
	}
	m.docs[path] = merged
	return nil
}

func (m *memStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	return nil
}

func (m *memStore) Query(ctx context.Context, collection string, filters ...port.Filter) ([]port.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.docs))
	for path := range m.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var docs []port.Document
	for _, path := range paths {
		i := strings.LastIndex(path, "/")
		if i < 0 || path[:i] != collection {
			continue
		}
		match, err := matches(m.docs[path], filters)
		if err != nil {
			return nil, err
		}
		if match {
			docs = append(docs, memDocument(path, m.docs[path]))
		}
	}
	return docs, nil
}

func (m *memStore) RunTransaction(ctx context.Context, fn func(tx port.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, staged: make(map[string]json.RawMessage)}
	if err := fn(tx); err != nil {
		return err
	}
	for path, raw := range tx.staged {
		m.docs[path] = raw
	}
	return nil
}

func (m *memStore) ServerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

type memTx struct {
	store  *memStore
	staged map[string]json.RawMessage
}

func (t *memTx) Get(path string) (port.Document, error) {
	if raw, ok := t.staged[path]; ok {
		return memDocument(path, raw), nil
	}
	raw, ok := t.store.docs[path]
	if !ok {
		return port.Document{}, port.ErrNotFound
	}
	return memDocument(path, raw), nil
}

func (t *memTx) Set(path string, data any) error {
	if t.store.failWrites {
		return errors.New("store write failed")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	t.staged[path] = raw
	return nil
}

func (t *memTx) Update(path string, fields map[string]any) error {
	if t.store.failWrites {
		return errors.New("store write failed")
	}
	doc, err := t.Get(path)
	if err != nil {
		return err
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	merged, err := mergePatch(doc.Data, patch)
	if err != nil {
		return err
	}
	t.staged[path] = merged
	return nil
}

func memDocument(path string, raw json.RawMessage) port.Document {
	return port.Document{
		ID:   path[strings.LastIndex(path, "/")+1:],
		Path: path,
		Data: raw,
	}
}

func mergePatch(existing, patch json.RawMessage) (json.RawMessage, error) {
	var base, fields map[string]any
	if err := json.Unmarshal(existing, &base); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		base[k] = v
	}
	return json.Marshal(base)
}

func matches(raw json.RawMessage, filters []port.Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	for _, f := range filters {
		got := fmt.Sprint(doc[f.Field])
		want := fmt.Sprint(f.Value)
		switch f.Op {
		case "==":
			if got != want {
				return false, nil
			}
		case "!=":
			if got == want {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return true, nil
}

// Mock Cache
type mockCache struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	catalogs       map[string][]domain.Product
}

func newMockCache() *mockCache {
	return &mockCache{
		idempotencySet: make(map[string]bool),
		catalogs:       make(map[string][]domain.Product),
	}
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

func (m *mockCache) GetCatalog(ctx context.Context, vendorID string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products, ok := m.catalogs[vendorID]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return products, nil
}

func (m *mockCache) SetCatalog(ctx context.Context, vendorID string, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs[vendorID] = products
	return nil
}

func (m *mockCache) InvalidateCatalog(ctx context.Context, vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.catalogs, vendorID)
	return nil
}

// Fixtures

const testTimeout = 2 * time.Second

func testCustomer() domain.Customer {
	return domain.Customer{
		ID:          "cust-1",
		Email:       "maria@example.com",
		DisplayName: "Maria Souza",
		Location:    "Bloco C, Ap 301",
		Role:        domain.RoleCustomer,
	}
}

func testVendor() domain.Vendor {
	return domain.Vendor{
		ID:             "vendor-1",
		Name:           "Doces da Ana",
		Location:       "Bloco B, Ap 104",
		Phone:          "(11) 98765-4321",
		Category:       domain.CategoryFood,
		LoyaltyEnabled: true,
	}
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "p-a", VendorID: "vendor-1", Name: "Bolo de pote", Price: domain.NewPrice(decimal.RequireFromString("10.00"))},
		{ID: "p-b", VendorID: "vendor-1", Name: "Brownie", Price: domain.NewPrice(decimal.RequireFromString("5.50"))},
		{ID: "p-c", VendorID: "vendor-1", Name: "Encomenda especial", Price: domain.DisplayPrice("Sob consulta")},
	}
}

func seedMarket(t *testing.T, store *memStore) {
	t.Helper()
	ctx := context.Background()

	customer := testCustomer()
	if err := store.Set(ctx, userPath(customer.ID), customer, false); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	vendor := testVendor()
	if err := store.Set(ctx, vendorPath(vendor.ID), vendor, false); err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	for _, p := range testProducts() {
		if err := store.Set(ctx, productPath(p.VendorID, p.ID), p, false); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
}

type testStack struct {
	store       *memStore
	cache       *mockCache
	sessions    *SessionManager
	checkout    *CheckoutService
	fulfillment *FulfillmentService
	loyalty     *LoyaltyService
	catalog     *CatalogService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	store := newMemStore()
	cache := newMockCache()
	sessions := NewSessionManager()
	seedMarket(t, store)
	return &testStack{
		store:       store,
		cache:       cache,
		sessions:    sessions,
		checkout:    NewCheckoutService(store, cache, messenger.NewWhatsApp("55"), sessions, testTimeout),
		fulfillment: NewFulfillmentService(store, testTimeout),
		loyalty:     NewLoyaltyService(store, testTimeout),
		catalog:     NewCatalogService(store, cache, testTimeout),
	}
}

func (s *testStack) addToCart(t *testing.T, customerID string, productID string) {
	t.Helper()
	vendor := testVendor()
	for _, p := range testProducts() {
		if p.ID == productID {
			if err := s.sessions.AddItem(customerID, vendor, p); err != nil {
				t.Fatalf("add %s to cart: %v", productID, err)
			}
			return
		}
	}
	t.Fatalf("unknown test product %s", productID)
}

func (s *testStack) loyaltyPoints(t *testing.T, customerID, vendorID string) int {
	t.Helper()
	doc, err := s.store.Get(context.Background(), loyaltyPath(customerID, vendorID))
	if errors.Is(err, port.ErrNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("fetch loyalty account: %v", err)
	}
	var account domain.LoyaltyAccount
	if err := doc.Decode(&account); err != nil {
		t.Fatalf("decode loyalty account: %v", err)
	}
	return account.Points
}
