package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

// FulfillmentService is the vendor side of the order lifecycle:
// listing pending work and confirming sales.
type FulfillmentService struct {
	store   port.DocumentStore
	timeout time.Duration
}

func NewFulfillmentService(store port.DocumentStore, timeout time.Duration) *FulfillmentService {
	return &FulfillmentService{store: store, timeout: timeout}
}

// ConfirmSale moves an order from pending to completed and, when the
// vendor runs a loyalty program, credits the customer one point. The
// status re-check, point increment and completion commit in a single
// transaction, so a double confirmation can never double-credit and a
// failed accrual leaves the order pending.
func (s *FulfillmentService) ConfirmSale(ctx context.Context, orderID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.store.RunTransaction(ctx, func(tx port.Tx) error {
		doc, err := tx.Get(orderPath(orderID))
		if err != nil {
			return fmt.Errorf("fetch order %s: %w", orderID, err)
		}
		order, err := decodeOrder(doc)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPending {
			return ErrOrderNotPending
		}

		vendorDoc, err := tx.Get(vendorPath(order.VendorID))
		if err != nil {
			return fmt.Errorf("fetch vendor %s: %w", order.VendorID, err)
		}
		var vendor domain.Vendor
		if err := vendorDoc.Decode(&vendor); err != nil {
			return fmt.Errorf("decode vendor %s: %w", order.VendorID, err)
		}

		if vendor.LoyaltyEnabled {
			if err := accrue(tx, order.CustomerID, order.VendorID, order.VendorName, 1); err != nil {
				return err
			}
		}

		return tx.Update(orderPath(orderID), map[string]any{
			"status": domain.OrderStatusCompleted,
		})
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotPending) {
			return ErrOrderNotPending
		}
		return fmt.Errorf("confirm sale %s: %w", orderID, err)
	}
	return nil
}

// accrue upserts the (customer, vendor) loyalty account inside tx,
// adding delta points. The vendor name is refreshed on every accrual.
func accrue(tx port.Tx, customerID, vendorID, vendorName string, delta int) error {
	path := loyaltyPath(customerID, vendorID)
	doc, err := tx.Get(path)
	if errors.Is(err, port.ErrNotFound) {
		return tx.Set(path, domain.LoyaltyAccount{VendorName: vendorName, Points: delta})
	}
	if err != nil {
		return fmt.Errorf("fetch loyalty account: %w", err)
	}
	var account domain.LoyaltyAccount
	if err := doc.Decode(&account); err != nil {
		return fmt.Errorf("decode loyalty account: %w", err)
	}
	return tx.Update(path, map[string]any{
		"points":     account.Points + delta,
		"vendorName": vendorName,
	})
}

// PendingOrders lists a vendor's unconfirmed orders, oldest first.
func (s *FulfillmentService) PendingOrders(ctx context.Context, vendorID string) ([]domain.Order, error) {
	orders, err := s.vendorOrders(ctx, vendorID, domain.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

// CompletedOrders lists a vendor's sales history, newest first.
func (s *FulfillmentService) CompletedOrders(ctx context.Context, vendorID string) ([]domain.Order, error) {
	orders, err := s.vendorOrders(ctx, vendorID, domain.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *FulfillmentService) vendorOrders(ctx context.Context, vendorID string, status domain.OrderStatus) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.store.Query(ctx, "orders",
		port.Filter{Field: "vendorId", Op: "==", Value: vendorID},
		port.Filter{Field: "status", Op: "==", Value: string(status)},
	)
	if err != nil {
		return nil, fmt.Errorf("query %s orders: %w", status, err)
	}
	return decodeOrders(docs)
}

// CustomerOrders lists a customer's own orders, newest first.
func (s *FulfillmentService) CustomerOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.store.Query(ctx, "orders",
		port.Filter{Field: "customerId", Op: "==", Value: customerID},
	)
	if err != nil {
		return nil, fmt.Errorf("query customer orders: %w", err)
	}
	orders, err := decodeOrders(docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func decodeOrders(docs []port.Document) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
