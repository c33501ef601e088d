package vendure

// Monetary values from the shop API are transmitted in minor currency units
// (cents). FromMinorUnits is the single conversion point to display units.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// Asset is an image reference
type Asset struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
	Source  string `json:"source"`
}

// Stock levels reported per variant
const (
	StockInStock    = "IN_STOCK"
	StockLowStock   = "LOW_STOCK"
	StockOutOfStock = "OUT_OF_STOCK"
)

type ProductVariant struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Price         int64  `json:"price"`
	PriceWithTax  int64  `json:"priceWithTax"`
	CurrencyCode  string `json:"currencyCode"`
	StockLevel    string `json:"stockLevel"`
	FeaturedAsset *Asset `json:"featuredAsset"`
}

type Collection struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	FeaturedAsset *Asset `json:"featuredAsset"`
}

type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	FeaturedAsset *Asset           `json:"featuredAsset"`
	Variants      []ProductVariant `json:"variants"`
	Collections   []Collection     `json:"collections"`
}

type ProductList struct {
	Items      []Product `json:"items"`
	TotalItems int       `json:"totalItems"`
}

// ProductListOptions mirrors the shop API's ProductListOptions input
type ProductListOptions struct {
	Take   int                    `json:"take,omitempty"`
	Skip   int                    `json:"skip,omitempty"`
	Sort   map[string]string      `json:"sort,omitempty"`
	Filter map[string]interface{} `json:"filter,omitempty"`
}

// OrderLine is one entry of the backend's active order
type OrderLine struct {
	ID               string `json:"id"`
	Quantity         int    `json:"quantity"`
	LinePrice        int64  `json:"linePrice"`
	LinePriceWithTax int64  `json:"linePriceWithTax"`
	ProductVariant   struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		SKU     string `json:"sku"`
		Product struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Slug          string `json:"slug"`
			FeaturedAsset *Asset `json:"featuredAsset"`
		} `json:"product"`
	} `json:"productVariant"`
}

// Order is the backend's in-progress order tied to the current session.
// It functions as the remote cart.
type Order struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	State         string      `json:"state"`
	TotalQuantity int         `json:"totalQuantity"`
	TotalWithTax  int64       `json:"totalWithTax"`
	CurrencyCode  string      `json:"currencyCode"`
	Lines         []OrderLine `json:"lines"`
}

// SearchPrice is either a single value or a min/max range
type SearchPrice struct {
	Min   *int64 `json:"min"`
	Max   *int64 `json:"max"`
	Value *int64 `json:"value"`
}

type SearchResultItem struct {
	ProductID           string      `json:"productId"`
	ProductName         string      `json:"productName"`
	ProductVariantID    string      `json:"productVariantId"`
	ProductVariantName  string      `json:"productVariantName"`
	Slug                string      `json:"slug"`
	SKU                 string      `json:"sku"`
	Price               SearchPrice `json:"price"`
	PriceWithTax        SearchPrice `json:"priceWithTax"`
	CurrencyCode        string      `json:"currencyCode"`
	ProductAsset        *Asset      `json:"productAsset"`
	ProductVariantAsset *Asset      `json:"productVariantAsset"`
}

type SearchResult struct {
	Items      []SearchResultItem `json:"items"`
	TotalItems int                `json:"totalItems"`
}

// SearchInput mirrors the shop API's SearchInput
type SearchInput struct {
	Term           string   `json:"term"`
	Take           int      `json:"take,omitempty"`
	Skip           int      `json:"skip,omitempty"`
	GroupByProduct bool     `json:"groupByProduct,omitempty"`
	CollectionSlug string   `json:"collectionSlug,omitempty"`
	FacetValueIDs  []string `json:"facetValueIds,omitempty"`
}
