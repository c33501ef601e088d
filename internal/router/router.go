package router

import (
	"github.com/gin-gonic/gin"
	"github.com/neonmart/storefront-backend/config"
	"github.com/neonmart/storefront-backend/internal/app/controller"
	"github.com/neonmart/storefront-backend/internal/middleware"
	"github.com/neonmart/storefront-backend/internal/ws"
)

type Router struct {
	cartController     *controller.CartController
	catalogController  *controller.CatalogController
	checkoutController *controller.CheckoutController
	sessionMiddleware  *middleware.SessionMiddleware
	hub                *ws.Hub
	config             *config.Config
}

func NewRouter(
	cartController *controller.CartController,
	catalogController *controller.CatalogController,
	checkoutController *controller.CheckoutController,
	sessionMiddleware *middleware.SessionMiddleware,
	hub *ws.Hub,
	cfg *config.Config,
) *Router {
	return &Router{
		cartController:     cartController,
		catalogController:  catalogController,
		checkoutController: checkoutController,
		sessionMiddleware:  sessionMiddleware,
		hub:                hub,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	router.Use(r.sessionMiddleware.Ensure())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	// Live surface pushes; one connection per open tab
	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWS(c.Request.Context(), r.hub, c.Writer, c.Request, middleware.GetSessionID(c))
	})

	v1 := router.Group("/api/v1")
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.GET("/surfaces", r.cartController.GetSurfaces)
			cart.POST("/items", r.cartController.AddItem)
			cart.PATCH("/items/:lineId", r.cartController.UpdateQuantity)
			cart.DELETE("/items/:lineId", r.cartController.RemoveItem)

			drawer := cart.Group("/drawer")
			{
				drawer.POST("/open", r.cartController.OpenDrawer)
				drawer.POST("/close", r.cartController.CloseDrawer)
				drawer.POST("/toggle", r.cartController.ToggleDrawer)
			}
		}

		products := v1.Group("/products")
		{
			products.GET("", r.catalogController.ListProducts)
			products.GET("/featured", r.catalogController.FeaturedProducts)
			products.GET("/:slug", r.catalogController.GetProduct)
		}

		v1.GET("/search", r.catalogController.SearchProducts)
		v1.GET("/collections", r.catalogController.ListCollections)

		checkout := v1.Group("/checkout")
		{
			checkout.GET("/summary", r.checkoutController.GetSummary)
			checkout.POST("/complete", r.checkoutController.CompleteCheckout)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
