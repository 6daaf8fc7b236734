package domain

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
)

type Customer struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Location    string `json:"location"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}
