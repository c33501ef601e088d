package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neonmart/storefront-backend/internal/app/service"
	apperrors "github.com/neonmart/storefront-backend/internal/errors"
	"github.com/neonmart/storefront-backend/internal/middleware"
	"github.com/neonmart/storefront-backend/internal/surface"
)

type CheckoutController struct {
	cartService service.CartService
	drawers     *surface.DrawerRegistry
	pusher      SurfacePusher
}

func NewCheckoutController(cartService service.CartService, drawers *surface.DrawerRegistry, pusher SurfacePusher) *CheckoutController {
	return &CheckoutController{
		cartService: cartService,
		drawers:     drawers,
		pusher:      pusher,
	}
}

// GetSummary returns the checkout order summary. Navigating to checkout
// closes the drawer.
// GET /api/v1/checkout/summary
func (ctrl *CheckoutController) GetSummary(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	if ctrl.drawers.Close(sessionID, surface.CloseCheckout) && ctrl.pusher != nil {
		ctrl.pusher.PushToSession(c.Request.Context(), sessionID)
	}

	cart := ctrl.cartService.GetCart(c.Request.Context(), sessionID)
	summary := surface.SummaryFrom(cart)
	if summary.Empty {
		apperrors.BadRequest(c, apperrors.CheckoutEmptyCart, "There is nothing to check out")
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// CompleteCheckout finishes the purchase flow: the cart is cleared in both
// sources and every surface resets.
// POST /api/v1/checkout/complete
func (ctrl *CheckoutController) CompleteCheckout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := middleware.GetSessionID(c)

	ctrl.drawers.Close(sessionID, surface.CloseCheckout)
	cart := ctrl.cartService.CompleteCheckout(c.Request.Context(), sessionID)

	log.Info("Checkout completed, cart cleared", map[string]interface{}{
		"session_id": sessionID,
	})
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}
