package domain

const (
	CategoryFood     = "Alimentação"
	CategoryServices = "Serviços"
)

type Vendor struct {
	ID             string  `json:"id,omitempty"`
	OwnerID        string  `json:"ownerId"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Location       string  `json:"location"`
	Phone          string  `json:"phone"`
	Category       string  `json:"category"`
	Rating         float64 `json:"rating"`
	Reviews        int     `json:"reviews"`
	LoyaltyEnabled bool    `json:"loyaltyEnabled"`
}

const (
	AvailabilityInStock = "Pronta Entrega"
	AvailabilityToOrder = "Apenas por Encomenda"
)

type Product struct {
	ID           string `json:"id,omitempty"`
	VendorID     string `json:"-"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        Price  `json:"price"`
	Availability string `json:"availability,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
}
