package messenger

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rl1809/condo-market/internal/core/domain"
)

// WhatsApp builds wa.me deep links carrying the order message. Opening
// the link is the customer's side; nothing here can observe delivery.
type WhatsApp struct {
	countryCode string
}

func NewWhatsApp(countryCode string) *WhatsApp {
	return &WhatsApp{countryCode: countryCode}
}

func (w *WhatsApp) OrderLink(vendor domain.Vendor, order domain.Order) (string, error) {
	phone := digits(vendor.Phone)
	if phone == "" {
		return "", fmt.Errorf("vendor %s has no phone digits", vendor.ID)
	}

	var summary strings.Builder
	for i, item := range order.Items {
		if i > 0 {
			summary.WriteByte('\n')
		}
		fmt.Fprintf(&summary, "%dx %s", item.Quantity, item.Name)
	}

	message := fmt.Sprintf(
		"Olá, %s! Gostaria de fazer o seguinte pedido (Nº %s):\n\n%s\n\n*Total: R$ %s*",
		vendor.Name, order.ShortCode(), summary.String(), domain.FormatBRL(order.Total),
	)

	query := url.Values{}
	query.Set("text", message)
	return "https://wa.me/" + w.countryCode + phone + "?" + query.Encode(), nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
