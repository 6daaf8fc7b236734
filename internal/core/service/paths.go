package service

// Document paths mirror the hosted store layout: top-level users,
// vendors and orders collections, with loyalty points nested under the
// customer and products, settings and redemptions under the vendor.

func userPath(customerID string) string {
	return "users/" + customerID
}

func vendorPath(vendorID string) string {
	return "vendors/" + vendorID
}

func orderPath(orderID string) string {
	return "orders/" + orderID
}

func productPath(vendorID, productID string) string {
	return productsCollection(vendorID) + "/" + productID
}

func productsCollection(vendorID string) string {
	return "vendors/" + vendorID + "/products"
}

func loyaltyPath(customerID, vendorID string) string {
	return loyaltyCollection(customerID) + "/" + vendorID
}

func loyaltyCollection(customerID string) string {
	return "users/" + customerID + "/loyaltyPoints"
}

func loyaltySettingsPath(vendorID string) string {
	return "vendors/" + vendorID + "/loyaltySettings/config"
}

func redemptionPath(vendorID, redemptionID string) string {
	return "vendors/" + vendorID + "/redemptions/" + redemptionID
}
