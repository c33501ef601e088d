package model

import (
	"github.com/neonmart/storefront-backend/pkg/vendure"
)

// ProductVariantView is a display-ready variant
type ProductVariantView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SKU        string  `json:"sku"`
	Price      float64 `json:"price"`
	StockLevel string  `json:"stockLevel"`
}

// ProductView is a display-ready product card. Price is the first variant's
// tax-inclusive price in major units.
type ProductView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Price       float64              `json:"price"`
	ImageURL    string               `json:"imageUrl"`
	Category    string               `json:"category"`
	InStock     bool                 `json:"inStock"`
	Variants    []ProductVariantView `json:"variants"`
}

// ProductViewFrom converts a catalog product to its display form
func ProductViewFrom(p vendure.Product) ProductView {
	view := ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    "/placeholder.svg",
		Category:    "uncategorized",
	}

	if p.FeaturedAsset != nil {
		view.ImageURL = p.FeaturedAsset.Preview
	}
	if len(p.Collections) > 0 {
		view.Category = p.Collections[0].Slug
	}

	for _, v := range p.Variants {
		view.Variants = append(view.Variants, ProductVariantView{
			ID:         v.ID,
			Name:       v.Name,
			SKU:        v.SKU,
			Price:      vendure.FromMinorUnits(v.PriceWithTax),
			StockLevel: v.StockLevel,
		})
	}

	if len(p.Variants) > 0 {
		first := p.Variants[0]
		view.Price = vendure.FromMinorUnits(first.PriceWithTax)
		view.InStock = first.StockLevel != vendure.StockOutOfStock
	}

	return view
}

// SearchItemView is a lightweight display-ready search hit. The backend
// reports either a single price or a range; MinPrice == MaxPrice for single
// prices.
type SearchItemView struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	MinPrice  float64 `json:"minPrice"`
	MaxPrice  float64 `json:"maxPrice"`
	ImageURL  string  `json:"imageUrl"`
}

// SearchItemViewFrom converts a search hit to its display form
func SearchItemViewFrom(item vendure.SearchResultItem) SearchItemView {
	view := SearchItemView{
		ProductID: item.ProductID,
		VariantID: item.ProductVariantID,
		Name:      item.ProductName,
		Slug:      item.Slug,
		ImageURL:  "/placeholder.svg",
	}

	switch {
	case item.PriceWithTax.Value != nil:
		price := vendure.FromMinorUnits(*item.PriceWithTax.Value)
		view.MinPrice = price
		view.MaxPrice = price
	case item.PriceWithTax.Min != nil && item.PriceWithTax.Max != nil:
		view.MinPrice = vendure.FromMinorUnits(*item.PriceWithTax.Min)
		view.MaxPrice = vendure.FromMinorUnits(*item.PriceWithTax.Max)
	}

	if item.ProductVariantAsset != nil {
		view.ImageURL = item.ProductVariantAsset.Preview
	} else if item.ProductAsset != nil {
		view.ImageURL = item.ProductAsset.Preview
	}

	return view
}
