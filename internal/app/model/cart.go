package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// CartLine is one entry of the persisted cart. Name, price and image are
// snapshotted at add time and never re-fetched. UnitPrice is in major
// currency units (dollars), unlike the backend wire format.
type CartLine struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId,omitempty"` // empty means default variant
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl"`
}

// PersistedCart is the local fallback cart. TotalItems and TotalPrice are
// derived from Items via Recompute and must never be set independently.
// CurrencyCode is the last currency seen when lines were captured; empty on
// carts that never saw one.
type PersistedCart struct {
	Items        []CartLine `json:"items"`
	CurrencyCode string     `json:"currencyCode,omitempty"`
	TotalItems   int        `json:"totalItems"`
	TotalPrice   float64    `json:"totalPrice"`
}

// EmptyCart returns a cart with no items and zeroed totals
func EmptyCart() PersistedCart {
	return PersistedCart{Items: []CartLine{}}
}

// Recompute rederives the totals from the items
func (c *PersistedCart) Recompute() {
	totalItems := 0
	totalPrice := 0.0
	for _, line := range c.Items {
		totalItems += line.Quantity
		totalPrice += line.UnitPrice * float64(line.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
}

// FindLine returns the index of the line with the given id, or -1
func (c *PersistedCart) FindLine(lineID string) int {
	for i, line := range c.Items {
		if line.ID == lineID {
			return i
		}
	}
	return -1
}

// FindByKey returns the index of the line for (productID, variantID), or -1.
// At most one line exists per distinct pair.
func (c *PersistedCart) FindByKey(productID, variantID string) int {
	for i, line := range c.Items {
		if line.ProductID == productID && line.VariantID == variantID {
			return i
		}
	}
	return -1
}

// NewLineID derives a line id from the product, variant and creation time so
// that repeat adds of the same pair remain distinguishable in logs.
func NewLineID(productID, variantID string, now time.Time) string {
	variant := variantID
	if variant == "" {
		variant = "default"
	}
	return fmt.Sprintf("%s-%s-%d", productID, variant, now.UnixMilli())
}

// CartSchemaVersion is the persisted envelope version. The original storage
// layout had no version field; DecodeCart still accepts those payloads.
const CartSchemaVersion = 1

type cartEnvelope struct {
	Version int           `json:"version"`
	Cart    PersistedCart `json:"cart"`
}

// EncodeCart serializes a cart into its versioned storage envelope
func EncodeCart(cart PersistedCart) ([]byte, error) {
	return json.Marshal(cartEnvelope{Version: CartSchemaVersion, Cart: cart})
}

// DecodeCart parses a stored payload, accepting both the versioned envelope
// and the legacy bare-cart layout. Totals are recomputed on the way in so a
// tampered or stale payload cannot violate the totals invariant.
func DecodeCart(data []byte) (PersistedCart, error) {
	var envelope cartEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return EmptyCart(), fmt.Errorf("failed to parse stored cart: %w", err)
	}

	cart := envelope.Cart
	if envelope.Version == 0 {
		// Legacy payload: the cart fields live at the top level
		if err := json.Unmarshal(data, &cart); err != nil {
			return EmptyCart(), fmt.Errorf("failed to parse legacy cart: %w", err)
		}
	}

	if cart.Items == nil {
		cart.Items = []CartLine{}
	}
	cart.Recompute()
	return cart, nil
}
