package domain

import "time"

// LoyaltyAccount is the per customer-vendor point balance. The document
// lives under users/{customerId}/loyaltyPoints/{vendorId}; both IDs are
// carried in the path, not the payload.
type LoyaltyAccount struct {
	CustomerID string `json:"-"`
	VendorID   string `json:"-"`
	VendorName string `json:"vendorName"`
	Points     int    `json:"points"`
}

// LoyaltySettings is the vendor's reward configuration, read-only from
// the accrual and redemption paths.
type LoyaltySettings struct {
	PointsNeeded      int    `json:"pointsNeeded"`
	RewardDescription string `json:"rewardDescription"`
}

// Redemption is the audit record written under the vendor when a
// customer spends points.
type Redemption struct {
	CustomerID string    `json:"userId"`
	RedeemedAt time.Time `json:"redeemedAt"`
}
