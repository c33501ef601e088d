package service

import (
	"context"
	"sync"
	"time"

	"github.com/neonmart/storefront-backend/internal/app/model"
	"github.com/neonmart/storefront-backend/pkg/logger"
	"github.com/neonmart/storefront-backend/pkg/vendure"
)

// CollectionView is a display-ready collection entry
type CollectionView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// CatalogService proxies the commerce backend's catalog for the storefront.
// The featured slice is cached and refreshed on a schedule so the landing
// page stays fast and keeps working through short backend outages.
type CatalogService interface {
	Products(ctx context.Context, take, skip int, sort map[string]string, nameFilter string) ([]model.ProductView, int, error)
	ProductBySlug(ctx context.Context, slug string) (*model.ProductView, error)
	Search(ctx context.Context, term string, take int) ([]model.SearchItemView, int, error)
	Collections(ctx context.Context) ([]CollectionView, error)
	Featured(ctx context.Context) []model.ProductView
	RefreshFeatured(ctx context.Context) error
}

type catalogService struct {
	client       *vendure.Client
	featuredTake int

	mu          sync.RWMutex
	featured    []model.ProductView
	refreshedAt time.Time
}

// NewCatalogService creates the catalog proxy. featuredTake is the size of
// the cached landing-page slice.
func NewCatalogService(client *vendure.Client, featuredTake int) CatalogService {
	return &catalogService{
		client:       client,
		featuredTake: featuredTake,
	}
}

func (s *catalogService) Products(ctx context.Context, take, skip int, sort map[string]string, nameFilter string) ([]model.ProductView, int, error) {
	opts := vendure.ProductListOptions{Take: take, Skip: skip, Sort: sort}
	if nameFilter != "" {
		opts.Filter = map[string]interface{}{
			"name": map[string]string{"contains": nameFilter},
		}
	}

	list, _, err := s.client.Products(ctx, "", opts)
	if err != nil {
		return nil, 0, err
	}

	views := make([]model.ProductView, 0, len(list.Items))
	for _, p := range list.Items {
		views = append(views, model.ProductViewFrom(p))
	}
	return views, list.TotalItems, nil
}

func (s *catalogService) ProductBySlug(ctx context.Context, slug string) (*model.ProductView, error) {
	product, _, err := s.client.ProductBySlug(ctx, "", slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	view := model.ProductViewFrom(*product)
	return &view, nil
}

func (s *catalogService) Search(ctx context.Context, term string, take int) ([]model.SearchItemView, int, error) {
	result, _, err := s.client.Search(ctx, "", vendure.SearchInput{
		Term:           term,
		Take:           take,
		GroupByProduct: true,
	})
	if err != nil {
		return nil, 0, err
	}

	views := make([]model.SearchItemView, 0, len(result.Items))
	for _, item := range result.Items {
		views = append(views, model.SearchItemViewFrom(item))
	}
	return views, result.TotalItems, nil
}

func (s *catalogService) Collections(ctx context.Context) ([]CollectionView, error) {
	collections, _, err := s.client.Collections(ctx, "")
	if err != nil {
		return nil, err
	}

	views := make([]CollectionView, 0, len(collections))
	for _, c := range collections {
		view := CollectionView{ID: c.ID, Name: c.Name, Slug: c.Slug}
		if c.FeaturedAsset != nil {
			view.ImageURL = c.FeaturedAsset.Preview
		}
		views = append(views, view)
	}
	return views, nil
}

// Featured returns the cached landing-page products, refreshing inline on
// first use. An empty slice after a failed refresh is a valid answer; the
// next scheduled run repairs it.
func (s *catalogService) Featured(ctx context.Context) []model.ProductView {
	s.mu.RLock()
	cached := s.featured
	s.mu.RUnlock()
	if cached != nil {
		return cached
	}

	if err := s.RefreshFeatured(ctx); err != nil {
		logger.Warn("Featured products unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return []model.ProductView{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.featured
}

// RefreshFeatured refetches the featured slice. A failed fetch keeps the
// previous cache so readers never regress to empty mid-outage.
func (s *catalogService) RefreshFeatured(ctx context.Context) error {
	views, _, err := s.Products(ctx, s.featuredTake, 0, nil, "")
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.featured = views
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	logger.Info("Featured products refreshed", map[string]interface{}{
		"count": len(views),
	})
	return nil
}
