package controller

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neonmart/storefront-backend/internal/app/remote"
	"github.com/neonmart/storefront-backend/internal/app/service"
	"github.com/neonmart/storefront-backend/internal/app/store"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/neonmart/storefront-backend/internal/middleware"
	"github.com/neonmart/storefront-backend/internal/surface"
	"github.com/neonmart/storefront-backend/pkg/vendure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCheckoutTest(t *testing.T) (*gin.Engine, *surface.DrawerRegistry) {
	t.Helper()

	// Unreachable backend: everything runs on the local cart
	client, err := vendure.NewClient(vendure.Config{APIURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	eventBus := bus.New(nil)
	cartStore := store.NewCartStore(nil, eventBus)
	cartService := service.NewCartService(cartStore, remote.NewAccessor(client, nil, 0), eventBus)
	drawers := surface.NewDrawerRegistry()

	cartCtrl := NewCartController(cartService, drawers, nil)
	checkoutCtrl := NewCheckoutController(cartService, drawers, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.SessionIDKey, "sess-test")
		c.Next()
	})
	router.POST("/cart/items", cartCtrl.AddItem)
	router.GET("/checkout/summary", checkoutCtrl.GetSummary)
	router.POST("/checkout/complete", checkoutCtrl.CompleteCheckout)
	router.GET("/cart", cartCtrl.GetCart)

	return router, drawers
}

func TestCheckoutController_SummaryClosesDrawer(t *testing.T) {
	router, drawers := setupCheckoutTest(t)

	addWidget(t, router)
	drawers.Open("sess-test")

	w := doJSON(t, router, http.MethodGet, "/checkout/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, surface.DrawerClosed, drawers.State("sess-test"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	summary := resp["summary"].(map[string]interface{})
	assert.InDelta(t, 29.99, summary["subtotal"].(float64), 1e-9)
	assert.Equal(t, false, summary["empty"])
}

func TestCheckoutController_SummaryRejectsEmptyCart(t *testing.T) {
	router, _ := setupCheckoutTest(t)

	w := doJSON(t, router, http.MethodGet, "/checkout/summary", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CHECKOUT_EMPTY_CART")
}

func TestCheckoutController_CompleteClearsCart(t *testing.T) {
	router, _ := setupCheckoutTest(t)

	addWidget(t, router)

	w := doJSON(t, router, http.MethodPost, "/checkout/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/cart", nil)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["cart"].(map[string]interface{})["totalItems"])
}
