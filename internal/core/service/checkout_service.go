package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

// CheckoutService turns a session cart into a pending order and hands
// the customer a messaging deep link for the vendor.
type CheckoutService struct {
	store     port.DocumentStore
	cache     port.Cache
	messenger port.Messenger
	sessions  *SessionManager
	timeout   time.Duration
}

func NewCheckoutService(store port.DocumentStore, cache port.Cache, messenger port.Messenger, sessions *SessionManager, timeout time.Duration) *CheckoutService {
	return &CheckoutService{
		store:     store,
		cache:     cache,
		messenger: messenger,
		sessions:  sessions,
		timeout:   timeout,
	}
}

// CheckoutResult carries the created order and the deep link the
// customer opens to send it.
type CheckoutResult struct {
	Order       domain.Order
	MessageLink string
}

// Checkout submits the customer's cart. Preconditions are checked
// before any store write; on any failure no order becomes visible and
// the cart is left untouched. The cart is cleared only after the order
// document is committed.
func (s *CheckoutService) Checkout(ctx context.Context, customerID string) (*CheckoutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cart := s.sessions.View(customerID)
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !cart.Total.IsPositive() {
		return nil, ErrZeroTotal
	}

	customer, err := fetchCustomer(ctx, s.store, customerID)
	if err != nil {
		return nil, err
	}
	vendor, err := fetchVendor(ctx, s.store, cart.VendorID)
	if err != nil {
		return nil, err
	}
	if digitsOnly(vendor.Phone) == "" {
		return nil, ErrMissingVendorContact
	}

	// Double-submit guard for the same session cart, held only while
	// the submit is in flight. A later order from the same vendor is a
	// new cart, not a duplicate.
	idempotencyKey := fmt.Sprintf("checkout:%s:%s", customerID, cart.VendorID)
	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateCheckout
	}
	defer s.release(idempotencyKey)

	now, err := s.store.ServerTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("server time: %w", err)
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		CustomerID:       customer.ID,
		CustomerName:     customer.DisplayName,
		CustomerLocation: customer.Location,
		VendorID:         vendor.ID,
		VendorName:       vendor.Name,
		Items:            cart.Lines,
		Total:            cart.Total,
		Status:           domain.OrderStatusPending,
		CreatedAt:        now,
	}

	if err := s.store.Set(ctx, orderPath(order.ID), order, false); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	link, err := s.messenger.OrderLink(vendor, order)
	if err != nil {
		return nil, fmt.Errorf("build order link: %w", err)
	}

	s.sessions.Clear(customerID)

	return &CheckoutResult{Order: order, MessageLink: link}, nil
}

// release frees the idempotency key once the submit is no longer in
// flight. Best effort: the key expires on its own.
func (s *CheckoutService) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.ReleaseIdempotency(ctx, key); err != nil {
		log.Printf("release idempotency key %s: %v", key, err)
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
