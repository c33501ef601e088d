package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neonmart/storefront-backend/config"
	"github.com/neonmart/storefront-backend/internal/app/controller"
	"github.com/neonmart/storefront-backend/internal/app/remote"
	"github.com/neonmart/storefront-backend/internal/app/service"
	"github.com/neonmart/storefront-backend/internal/app/store"
	"github.com/neonmart/storefront-backend/internal/bus"
	"github.com/neonmart/storefront-backend/internal/middleware"
	"github.com/neonmart/storefront-backend/internal/router"
	"github.com/neonmart/storefront-backend/internal/scheduler"
	"github.com/neonmart/storefront-backend/internal/surface"
	"github.com/neonmart/storefront-backend/internal/ws"
	"github.com/neonmart/storefront-backend/pkg/logger"
	pkgredis "github.com/neonmart/storefront-backend/pkg/redis"
	"github.com/neonmart/storefront-backend/pkg/vendure"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Redis is best-effort: without it the server still runs, carts just
	// lose durability and cross-instance events.
	if err := pkgredis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, running with in-memory carts only", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := pkgredis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()
	rdb := pkgredis.GetClient()

	// Commerce backend client
	vendureClient, err := vendure.NewClient(vendure.Config{
		APIURL:  cfg.Vendure.APIURL,
		Timeout: cfg.Vendure.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create commerce backend client", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Core cart plumbing
	eventBus := bus.New(rdb)
	go eventBus.Run(ctx)

	cartStore := store.NewCartStore(rdb, eventBus)
	accessor := remote.NewAccessor(vendureClient, rdb, cfg.Vendure.ReadRetries)

	// Services
	cartService := service.NewCartService(cartStore, accessor, eventBus)
	catalogService := service.NewCatalogService(vendureClient, cfg.Catalog.FeaturedTake)

	// Presentation surfaces and live pushes
	drawers := surface.NewDrawerRegistry()
	hub := ws.NewHub(cartService, drawers, eventBus)
	go hub.Run(ctx)

	// Controllers
	cartController := controller.NewCartController(cartService, drawers, hub)
	catalogController := controller.NewCatalogController(catalogService)
	checkoutController := controller.NewCheckoutController(cartService, drawers, hub)

	// Middleware
	sessionMiddleware := middleware.NewSessionMiddleware(cfg.Session)

	// Background jobs
	catalogScheduler := scheduler.NewCatalogScheduler(catalogService, cartStore, cfg.Catalog.RefreshSchedule)
	if err := catalogScheduler.Start(); err != nil {
		logger.Fatal("Failed to start catalog scheduler", err)
	}
	defer catalogScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		cartController,
		catalogController,
		checkoutController,
		sessionMiddleware,
		hub,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
