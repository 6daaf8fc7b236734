package port

import "github.com/rl1809/condo-market/internal/core/domain"

// Messenger hands a submitted order to an external messaging app via a
// deep link. Fire-and-forget: delivery is never observable here.
type Messenger interface {
	// OrderLink builds the deep link carrying the order message to the
	// vendor's contact handle.
	OrderLink(vendor domain.Vendor, order domain.Order) (string, error)
}
