package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is either a fixed amount or free-form pricing text such as
// "Sob consulta" for items quoted on request. Display-only prices are
// excluded from every total computation.
type Price struct {
	Amount  decimal.Decimal
	Display string
}

func NewPrice(amount decimal.Decimal) Price {
	return Price{Amount: amount}
}

func DisplayPrice(text string) Price {
	return Price{Display: text}
}

// Numeric reports whether the price carries an amount usable in totals.
func (p Price) Numeric() bool {
	return p.Display == ""
}

func (p Price) String() string {
	if !p.Numeric() {
		return p.Display
	}
	return "R$ " + FormatBRL(p.Amount)
}

// MarshalJSON keeps the stored document shape: a number for fixed
// prices, a verbatim string for display-only ones.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Numeric() {
		return json.Marshal(p.Display)
	}
	return []byte(p.Amount.String()), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = DisplayPrice(s)
		return nil
	}
	amount, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}
	*p = NewPrice(amount)
	return nil
}

// FormatBRL renders an amount with two decimals and a comma separator.
func FormatBRL(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}
