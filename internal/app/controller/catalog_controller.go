package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/neonmart/storefront-backend/internal/app/service"
	apperrors "github.com/neonmart/storefront-backend/internal/errors"
	"github.com/neonmart/storefront-backend/internal/middleware"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
)

type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

// ListProducts returns a page of products
// GET /api/v1/products?take=12&skip=0&sort=name|-name|price|-price&filter=widget
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	take := parsePositiveInt(c.Query("take"), defaultPageSize)
	if take > maxPageSize {
		take = maxPageSize
	}
	skip := parsePositiveInt(c.Query("skip"), 0)
	sort := parseSort(c.Query("sort"))
	filter := strings.TrimSpace(c.Query("filter"))

	products, total, err := ctrl.catalogService.Products(c.Request.Context(), take, skip, sort, filter)
	if err != nil {
		log.Error("Failed to fetch products", err, nil)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.CatalogUnavailable, "The catalog is temporarily unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"totalItems": total,
	})
}

// FeaturedProducts returns the cached landing-page slice
// GET /api/v1/products/featured
func (ctrl *CatalogController) FeaturedProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": ctrl.catalogService.Featured(c.Request.Context()),
	})
}

// GetProduct returns one product by slug
// GET /api/v1/products/:slug
func (ctrl *CatalogController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	product, err := ctrl.catalogService.ProductBySlug(c.Request.Context(), slug)
	if err != nil {
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"slug": slug,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.CatalogUnavailable, "The catalog is temporarily unavailable")
		return
	}
	if product == nil {
		apperrors.NotFound(c, apperrors.CatalogProductNotFound, "Product not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// SearchProducts runs a catalog search
// GET /api/v1/search?term=widget&take=12
func (ctrl *CatalogController) SearchProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	term := c.Query("term")
	if term == "" {
		term = c.Query("q")
	}
	if term == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Query parameter term is required")
		return
	}
	take := parsePositiveInt(c.Query("take"), defaultPageSize)
	if take > maxPageSize {
		take = maxPageSize
	}

	items, total, err := ctrl.catalogService.Search(c.Request.Context(), term, take)
	if err != nil {
		log.Error("Search failed", err, map[string]interface{}{
			"term": term,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.CatalogUnavailable, "Search is temporarily unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"totalItems": total,
	})
}

// ListCollections returns the catalog collections
// GET /api/v1/collections
func (ctrl *CatalogController) ListCollections(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	collections, err := ctrl.catalogService.Collections(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch collections", err, nil)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.CatalogUnavailable, "The catalog is temporarily unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// parseSort maps "name" / "-price" style parameters to the backend's sort
// input. Unknown fields are ignored.
func parseSort(s string) map[string]string {
	if s == "" {
		return nil
	}
	direction := "ASC"
	if strings.HasPrefix(s, "-") {
		direction = "DESC"
		s = s[1:]
	}
	switch s {
	case "name", "price", "createdAt":
		return map[string]string{s: direction}
	}
	return nil
}
