package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neonmart/storefront-backend/internal/app/service"
	apperrors "github.com/neonmart/storefront-backend/internal/errors"
	"github.com/neonmart/storefront-backend/internal/middleware"
	"github.com/neonmart/storefront-backend/internal/surface"
)

// SurfacePusher re-renders a session's surfaces over its live connections.
// Satisfied by the websocket hub; nil disables pushes (tests).
type SurfacePusher interface {
	PushToSession(ctx context.Context, sessionID string)
}

type CartController struct {
	cartService service.CartService
	drawers     *surface.DrawerRegistry
	pusher      SurfacePusher
}

func NewCartController(cartService service.CartService, drawers *surface.DrawerRegistry, pusher SurfacePusher) *CartController {
	return &CartController{
		cartService: cartService,
		drawers:     drawers,
		pusher:      pusher,
	}
}

type AddItemRequest struct {
	ProductID      string `json:"productId" binding:"required"`
	VariantID      string `json:"variantId"`
	Name           string `json:"name" binding:"required"`
	UnitPriceMinor int64  `json:"unitPriceMinor" binding:"gte=0"`
	CurrencyCode   string `json:"currencyCode"`
	ImageURL       string `json:"imageUrl"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CloseDrawerRequest struct {
	Reason string `json:"reason"`
}

// GetCart returns the reconciled cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	cart := ctrl.cartService.GetCart(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// GetSurfaces returns all presentation surfaces in one payload
// GET /api/v1/cart/surfaces
func (ctrl *CartController) GetSurfaces(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	cart := ctrl.cartService.GetCart(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{
		"badge":   surface.BadgeFrom(cart),
		"drawer":  ctrl.drawers.DrawerFrom(sessionID, cart),
		"summary": surface.SummaryFrom(cart),
	})
}

// AddItem adds a product to the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := middleware.GetSessionID(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid add-to-cart payload")
		return
	}

	cart, err := ctrl.cartService.AddItem(c.Request.Context(), sessionID, service.AddItemRequest{
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		Name:           req.Name,
		UnitPriceMinor: req.UnitPriceMinor,
		CurrencyCode:   req.CurrencyCode,
		ImageURL:       req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrMutationInFlight) {
			apperrors.Conflict(c, apperrors.CartMutationInFlight, "This item is already being updated")
			return
		}
		log.Warn("Add to cart rejected", map[string]interface{}{
			"session_id": sessionID,
			"product_id": req.ProductID,
			"error":      err.Error(),
		})
		apperrors.RespondWithRemoteError(c, err)
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": req.ProductID,
		"source":     cart.Source,
	})
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// UpdateQuantity sets a line's quantity; zero or less removes it
// PATCH /api/v1/cart/items/:lineId
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	lineID := c.Param("lineId")
	if lineID == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Missing line id")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid quantity payload")
		return
	}

	cart, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), sessionID, lineID, *req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrMutationInFlight) {
			apperrors.Conflict(c, apperrors.CartMutationInFlight, "This item is already being updated")
			return
		}
		apperrors.RespondWithRemoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// RemoveItem removes a line from the cart
// DELETE /api/v1/cart/items/:lineId
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	lineID := c.Param("lineId")
	if lineID == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Missing line id")
		return
	}

	cart, err := ctrl.cartService.RemoveItem(c.Request.Context(), sessionID, lineID)
	if err != nil {
		if errors.Is(err, service.ErrMutationInFlight) {
			apperrors.Conflict(c, apperrors.CartMutationInFlight, "This item is already being updated")
			return
		}
		apperrors.RespondWithRemoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	cart := ctrl.cartService.Clear(c.Request.Context(), sessionID)

	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// OpenDrawer shows the cart drawer on every tab of the session
// POST /api/v1/cart/drawer/open
func (ctrl *CartController) OpenDrawer(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	if ctrl.drawers.Open(sessionID) {
		ctrl.push(c, sessionID)
	}
	c.JSON(http.StatusOK, gin.H{"state": ctrl.drawers.State(sessionID)})
}

// CloseDrawer dismisses the drawer, recording why
// POST /api/v1/cart/drawer/close
func (ctrl *CartController) CloseDrawer(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	var req CloseDrawerRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid drawer payload")
		return
	}
	reason := surface.CloseReason(req.Reason)
	if reason == "" {
		reason = surface.CloseExplicit
	}

	if ctrl.drawers.Close(sessionID, reason) {
		ctrl.push(c, sessionID)
	}
	c.JSON(http.StatusOK, gin.H{"state": ctrl.drawers.State(sessionID)})
}

// ToggleDrawer flips the drawer
// POST /api/v1/cart/drawer/toggle
func (ctrl *CartController) ToggleDrawer(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	state := ctrl.drawers.Toggle(sessionID)
	ctrl.push(c, sessionID)

	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (ctrl *CartController) push(c *gin.Context, sessionID string) {
	if ctrl.pusher != nil {
		ctrl.pusher.PushToSession(c.Request.Context(), sessionID)
	}
}
