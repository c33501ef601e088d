package model

import (
	"github.com/neonmart/storefront-backend/pkg/vendure"
)

// CartSource names which cart a display view was derived from
type CartSource string

const (
	SourceLocal  CartSource = "local"
	SourceRemote CartSource = "remote"
)

// DefaultCurrency labels local carts that never captured a currency code
// from the backend.
const DefaultCurrency = "USD"

// DisplayCart is what presentation surfaces render. All prices are in major
// currency units regardless of source.
type DisplayCart struct {
	Source       CartSource `json:"source"`
	CurrencyCode string     `json:"currencyCode"`
	Items        []CartLine `json:"items"`
	TotalItems   int        `json:"totalItems"`
	TotalPrice   float64    `json:"totalPrice"`
}

// DisplayFromLocal maps the persisted cart to its display form
func DisplayFromLocal(cart PersistedCart) DisplayCart {
	items := make([]CartLine, len(cart.Items))
	copy(items, cart.Items)

	currency := cart.CurrencyCode
	if currency == "" {
		currency = DefaultCurrency
	}

	return DisplayCart{
		Source:       SourceLocal,
		CurrencyCode: currency,
		Items:        items,
		TotalItems:   cart.TotalItems,
		TotalPrice:   cart.TotalPrice,
	}
}

// DisplayFromRemote maps the backend's active order to the display form.
// Wire prices are minor units; this is the conversion boundary.
func DisplayFromRemote(order *vendure.Order) DisplayCart {
	items := make([]CartLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		unitPrice := 0.0
		if line.Quantity > 0 {
			unitPrice = vendure.FromMinorUnits(line.LinePriceWithTax) / float64(line.Quantity)
		}

		imageURL := ""
		if line.ProductVariant.Product.FeaturedAsset != nil {
			imageURL = line.ProductVariant.Product.FeaturedAsset.Preview
		}

		items = append(items, CartLine{
			ID:        line.ID,
			ProductID: line.ProductVariant.Product.ID,
			VariantID: line.ProductVariant.ID,
			Name:      line.ProductVariant.Product.Name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
			ImageURL:  imageURL,
		})
	}

	currency := order.CurrencyCode
	if currency == "" {
		currency = DefaultCurrency
	}

	return DisplayCart{
		Source:       SourceRemote,
		CurrencyCode: currency,
		Items:        items,
		TotalItems:   order.TotalQuantity,
		TotalPrice:   vendure.FromMinorUnits(order.TotalWithTax),
	}
}
