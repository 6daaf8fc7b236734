package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/condo-market/internal/core/domain"
	"github.com/rl1809/condo-market/internal/core/service"
	"github.com/rl1809/condo-market/internal/port"
)

type HTTPHandler struct {
	sessions    *service.SessionManager
	catalog     *service.CatalogService
	checkout    *service.CheckoutService
	fulfillment *service.FulfillmentService
	loyalty     *service.LoyaltyService
}

func NewHTTPHandler(
	sessions *service.SessionManager,
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	fulfillment *service.FulfillmentService,
	loyalty *service.LoyaltyService,
) *HTTPHandler {
	return &HTTPHandler{
		sessions:    sessions,
		catalog:     catalog,
		checkout:    checkout,
		fulfillment: fulfillment,
		loyalty:     loyalty,
	}
}

// Routes mounts the API on a chi router.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/vendors", h.ListVendors)
		r.Route("/vendors/{vendorID}", func(r chi.Router) {
			r.Get("/", h.GetVendor)
			r.Get("/products", h.ListProducts)
			r.Post("/products", h.SaveProduct)
			r.Put("/products/{productID}", h.SaveProduct)
			r.Delete("/products/{productID}", h.DeleteProduct)
			r.Get("/orders", h.VendorOrders)
			r.Get("/loyalty-settings", h.GetLoyaltySettings)
			r.Put("/loyalty-settings", h.SaveLoyaltySettings)
		})

		r.Post("/orders/{orderID}/confirm", h.ConfirmSale)

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Patch("/cart/items/{productID}", h.AdjustCartItem)
			r.Delete("/cart/items/{productID}", h.RemoveCartItem)
			r.Delete("/cart", h.ClearCart)
			r.Post("/checkout", h.Checkout)
			r.Get("/orders", h.CustomerOrders)
			r.Get("/loyalty", h.LoyaltyOverview)
			r.Put("/loyalty/{vendorID}", h.EnsureLoyaltyAccount)
			r.Post("/loyalty/{vendorID}/redeem", h.Redeem)
		})
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type cartResponse struct {
	VendorID  string            `json:"vendor_id,omitempty"`
	Items     []domain.CartLine `json:"items"`
	Total     string            `json:"total"`
	ItemCount int               `json:"item_count"`
}

type checkoutResponse struct {
	Order       domain.Order `json:"order"`
	MessageLink string       `json:"message_link"`
}

type loyaltyStatusResponse struct {
	VendorID   string                  `json:"vendor_id"`
	VendorName string                  `json:"vendor_name"`
	Points     int                     `json:"points"`
	Settings   *domain.LoyaltySettings `json:"settings,omitempty"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.catalog.Vendors(r.Context(), r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (h *HTTPHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.catalog.Vendor(r.Context(), chi.URLParam(r, "vendorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context(), chi.URLParam(r, "vendorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if product.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing product name"})
		return
	}
	product.VendorID = chi.URLParam(r, "vendorID")
	if id := chi.URLParam(r, "productID"); id != "" {
		product.ID = id
	}
	saved, err := h.catalog.SaveProduct(r.Context(), product)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "vendorID"), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) VendorOrders(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")

	var orders []domain.Order
	var err error
	switch r.URL.Query().Get("status") {
	case "", string(domain.OrderStatusPending):
		orders, err = h.fulfillment.PendingOrders(r.Context(), vendorID)
	case string(domain.OrderStatusCompleted):
		orders, err = h.fulfillment.CompletedOrders(r.Context(), vendorID)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown order status"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) ConfirmSale(w http.ResponseWriter, r *http.Request) {
	if err := h.fulfillment.ConfirmSale(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.OrderStatusCompleted)})
}

type addCartItemRequest struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.VendorID == "" || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields"})
		return
	}

	vendor, err := h.catalog.Vendor(r.Context(), req.VendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	product, err := h.catalog.Product(r.Context(), req.VendorID, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.sessions.AddItem(customerID, vendor, product); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, customerID)
}

type adjustCartItemRequest struct {
	Delta int `json:"delta"`
}

func (h *HTTPHandler) AdjustCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var req adjustCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	h.sessions.AdjustQuantity(customerID, chi.URLParam(r, "productID"), req.Delta)
	h.writeCart(w, customerID)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	h.sessions.RemoveLine(customerID, chi.URLParam(r, "productID"))
	h.writeCart(w, customerID)
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	h.sessions.Clear(customerID)
	h.writeCart(w, customerID)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, chi.URLParam(r, "customerID"))
}

func (h *HTTPHandler) writeCart(w http.ResponseWriter, customerID string) {
	view := h.sessions.View(customerID)
	writeJSON(w, http.StatusOK, cartResponse{
		VendorID:  view.VendorID,
		Items:     view.Lines,
		Total:     view.Total.StringFixed(2),
		ItemCount: view.ItemCount,
	})
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkout.Checkout(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{
		Order:       result.Order,
		MessageLink: result.MessageLink,
	})
}

func (h *HTTPHandler) CustomerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.fulfillment.CustomerOrders(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) LoyaltyOverview(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.loyalty.Overview(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]loyaltyStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		resp = append(resp, loyaltyStatusResponse{
			VendorID:   s.Account.VendorID,
			VendorName: s.Account.VendorName,
			Points:     s.Account.Points,
			Settings:   s.Settings,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// EnsureLoyaltyAccount registers a zero-balance account when the
// customer first visits a loyalty vendor, so it shows in the overview.
func (h *HTTPHandler) EnsureLoyaltyAccount(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	vendor, err := h.catalog.Vendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	account, err := h.loyalty.EnsureAccount(r.Context(), chi.URLParam(r, "customerID"), vendorID, vendor.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loyaltyStatusResponse{
		VendorID:   account.VendorID,
		VendorName: account.VendorName,
		Points:     account.Points,
	})
}

func (h *HTTPHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	err := h.loyalty.Redeem(r.Context(), chi.URLParam(r, "customerID"), chi.URLParam(r, "vendorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "redeemed"})
}

func (h *HTTPHandler) GetLoyaltySettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.loyalty.Settings(r.Context(), chi.URLParam(r, "vendorID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *HTTPHandler) SaveLoyaltySettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.LoyaltySettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.loyalty.SaveSettings(r.Context(), chi.URLParam(r, "vendorID"), settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrVendorConflict),
		errors.Is(err, service.ErrDuplicateCheckout),
		errors.Is(err, service.ErrOrderNotPending):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrZeroTotal),
		errors.Is(err, service.ErrMissingVendorContact),
		errors.Is(err, service.ErrInsufficientPoints):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, service.ErrNoLoyaltyProgram), errors.Is(err, port.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	default:
		log.Printf("request failed: %v", err)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
