package service

import (
	"context"
	"fmt"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/port"
)

func fetchVendor(ctx context.Context, store port.DocumentStore, vendorID string) (domain.Vendor, error) {
	doc, err := store.Get(ctx, vendorPath(vendorID))
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("fetch vendor %s: %w", vendorID, err)
	}
	var vendor domain.Vendor
	if err := doc.Decode(&vendor); err != nil {
		return domain.Vendor{}, fmt.Errorf("decode vendor %s: %w", vendorID, err)
	}
	vendor.ID = doc.ID
	return vendor, nil
}

func fetchCustomer(ctx context.Context, store port.DocumentStore, customerID string) (domain.Customer, error) {
	doc, err := store.Get(ctx, userPath(customerID))
	if err != nil {
		return domain.Customer{}, fmt.Errorf("fetch customer %s: %w", customerID, err)
	}
	var customer domain.Customer
	if err := doc.Decode(&customer); err != nil {
		return domain.Customer{}, fmt.Errorf("decode customer %s: %w", customerID, err)
	}
	customer.ID = doc.ID
	return customer, nil
}

func decodeOrder(doc port.Document) (domain.Order, error) {
	var order domain.Order
	if err := doc.Decode(&order); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", doc.ID, err)
	}
	order.ID = doc.ID
	return order, nil
}
