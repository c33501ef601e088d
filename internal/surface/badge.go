package surface

import (
	"github.com/neonmart/storefront-backend/internal/app/model"
)

// Badge is the cart indicator payload. Visible is false for an empty cart so
// clients never render a zero.
type Badge struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}

// BadgeFrom derives the badge from a display cart
func BadgeFrom(cart model.DisplayCart) Badge {
	return Badge{
		Count:   cart.TotalItems,
		Visible: cart.TotalItems > 0,
	}
}
