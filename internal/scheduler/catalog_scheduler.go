package scheduler

import (
	"context"
	"time"

	"github.com/neonmart/storefront-backend/internal/app/service"
	"github.com/neonmart/storefront-backend/internal/app/store"
	"github.com/neonmart/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	refreshTimeout = 30 * time.Second

	// In-memory carts idle this long are dropped; Redis keeps the durable copy
	cartMaxIdle   = 24 * time.Hour
	pruneSchedule = "@hourly"
)

// CatalogScheduler keeps the featured-products cache warm and prunes idle
// in-memory carts.
type CatalogScheduler struct {
	cron            *cron.Cron
	catalogService  service.CatalogService
	cartStore       *store.CartStore
	refreshSchedule string
}

// NewCatalogScheduler creates the scheduler. refreshSchedule is a cron spec,
// e.g. "@every 5m".
func NewCatalogScheduler(catalogService service.CatalogService, cartStore *store.CartStore, refreshSchedule string) *CatalogScheduler {
	return &CatalogScheduler{
		cron:            cron.New(),
		catalogService:  catalogService,
		cartStore:       cartStore,
		refreshSchedule: refreshSchedule,
	}
}

// Start registers the jobs and begins the schedule
func (s *CatalogScheduler) Start() error {
	_, err := s.cron.AddFunc(s.refreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := s.catalogService.RefreshFeatured(ctx); err != nil {
			logger.Error("Scheduled featured refresh failed", err)
			return
		}
	})
	if err != nil {
		logger.Error("Failed to register featured refresh job", err)
		return err
	}

	_, err = s.cron.AddFunc(pruneSchedule, func() {
		pruned := s.cartStore.Prune(cartMaxIdle)
		if pruned > 0 {
			logger.Info("Pruned idle in-memory carts", map[string]interface{}{
				"count": pruned,
			})
		}
	})
	if err != nil {
		logger.Error("Failed to register cart prune job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Catalog scheduler started", map[string]interface{}{
		"refresh_schedule": s.refreshSchedule,
	})
	return nil
}

// Stop halts the schedule
func (s *CatalogScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Catalog scheduler stopped", nil)
}
