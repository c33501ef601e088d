package surface

import (
	"github.com/neonmart/storefront-backend/internal/app/model"
)

// SummaryLine is one checkout-summary row. LineTotal is the unit price times
// the quantity in major currency units.
type SummaryLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// Summary is the checkout order summary
type Summary struct {
	Lines        []SummaryLine    `json:"lines"`
	TotalItems   int              `json:"totalItems"`
	Subtotal     float64          `json:"subtotal"`
	CurrencyCode string           `json:"currencyCode"`
	Source       model.CartSource `json:"source"`
	Empty        bool             `json:"empty"`
}

// SummaryFrom derives the checkout summary from a display cart
func SummaryFrom(cart model.DisplayCart) Summary {
	lines := make([]SummaryLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, SummaryLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.UnitPrice * float64(item.Quantity),
			ImageURL:  item.ImageURL,
		})
	}

	return Summary{
		Lines:        lines,
		TotalItems:   cart.TotalItems,
		Subtotal:     cart.TotalPrice,
		CurrencyCode: cart.CurrencyCode,
		Source:       cart.Source,
		Empty:        len(lines) == 0,
	}
}
