package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// Order is the durable record of a submitted cart. Items and Total are
// frozen at submission and never recomputed, so later catalog price
// changes do not touch past orders.
type Order struct {
	ID               string          `json:"id,omitempty"`
	CustomerID       string          `json:"customerId"`
	CustomerName     string          `json:"customerName"`
	CustomerLocation string          `json:"customerLocation"`
	VendorID         string          `json:"vendorId"`
	VendorName       string          `json:"vendorName"`
	Items            []CartLine      `json:"items"`
	Total            decimal.Decimal `json:"total"`
	Status           OrderStatus     `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ShortCode is the human-facing order reference used in the checkout
// message.
func (o Order) ShortCode() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}
