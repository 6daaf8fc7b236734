package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrVendorConflict = errors.New("cart holds items from another vendor")

// CartLine is one product in the cart. Lines with a display-only price
// keep quantity fixed at 1 and never contribute to the total.
type CartLine struct {
	ProductID string `json:"id"`
	Name      string `json:"name"`
	UnitPrice Price  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Cart is the customer's not-yet-submitted selection, restricted to a
// single vendor. It is session-local and never persisted.
//
// Invariant: Lines is non-empty exactly when ActiveVendorID is set.
type Cart struct {
	ActiveVendorID string
	Lines          []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// AddItem puts one unit of product in the cart. Adding from a second
// vendor while the cart holds another vendor's items fails with
// ErrVendorConflict and leaves the cart unchanged.
func (c *Cart) AddItem(vendor Vendor, product Product) error {
	if !c.Empty() && c.ActiveVendorID != vendor.ID {
		return ErrVendorConflict
	}
	if c.Empty() {
		c.ActiveVendorID = vendor.ID
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == product.ID {
			if c.Lines[i].UnitPrice.Numeric() {
				c.Lines[i].Quantity++
			}
			return nil
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  1,
	})
	return nil
}

// AdjustQuantity changes a line's quantity by delta, clamped to a
// minimum of 1. Display-only lines have no quantity control.
func (c *Cart) AdjustQuantity(productID string, delta int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		if !c.Lines[i].UnitPrice.Numeric() {
			return
		}
		q := c.Lines[i].Quantity + delta
		if q < 1 {
			q = 1
		}
		c.Lines[i].Quantity = q
		return
	}
}

// RemoveLine deletes a line outright. Emptying the cart also clears the
// active vendor.
func (c *Cart) RemoveLine(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			break
		}
	}
	if c.Empty() {
		c.ActiveVendorID = ""
	}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.Lines = nil
	c.ActiveVendorID = ""
}

// Total sums unit price times quantity over numeric-price lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		if !line.UnitPrice.Numeric() {
			continue
		}
		total = total.Add(line.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ItemCount is the sum of quantities, for the cart badge.
func (c *Cart) ItemCount() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// Snapshot returns an independent copy of the lines, used to freeze
// order items at submission time.
func (c *Cart) Snapshot() []CartLine {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}
