package service

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/condo-market/internal/core/domain"
)

// CartView is a read-only copy of a session's cart state.
type CartView struct {
	VendorID  string
	Lines     []domain.CartLine
	Total     decimal.Decimal
	ItemCount int
}

// SessionManager holds one ephemeral cart per customer session. Carts
// never touch the store; concurrent requests from the same session are
// serialized by the lock.
type SessionManager struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func NewSessionManager() *SessionManager {
	return &SessionManager{carts: make(map[string]*domain.Cart)}
}

func (m *SessionManager) cart(customerID string) *domain.Cart {
	c, ok := m.carts[customerID]
	if !ok {
		c = domain.NewCart()
		m.carts[customerID] = c
	}
	return c
}

func (m *SessionManager) AddItem(customerID string, vendor domain.Vendor, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart(customerID).AddItem(vendor, product)
}

func (m *SessionManager) AdjustQuantity(customerID, productID string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart(customerID).AdjustQuantity(productID, delta)
}

func (m *SessionManager) RemoveLine(customerID, productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart(customerID).RemoveLine(productID)
}

func (m *SessionManager) Clear(customerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart(customerID).Clear()
}

// View snapshots the session's cart.
func (m *SessionManager) View(customerID string) CartView {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(customerID)
	return CartView{
		VendorID:  c.ActiveVendorID,
		Lines:     c.Snapshot(),
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
	}
}
