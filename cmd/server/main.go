package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/api"
	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/config"
	"github.com/disscount/disscount/internal/database"
	"github.com/disscount/disscount/internal/listing"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/services"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file (default: $DISSCOUNT_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// Initialize database
	if err := database.Initialize(cfg.DBPath, cfg.LogSQL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	// Initialize upstream client
	client := cijene.NewClient(cijene.Options{
		BaseURL:           cfg.Cijene.BaseURL,
		Token:             cfg.Cijene.Token,
		Timeout:           cfg.Cijene.Timeout.Duration,
		RequestsPerSecond: cfg.Cijene.RateLimit,
		Burst:             cfg.Cijene.Burst,
		Debug:             cfg.GinMode == gin.DebugMode,
	})

	aggregator, err := pricing.NewAggregator(cfg.Cijene.CacheSize * 4)
	if err != nil {
		log.Fatalf("Failed to create price aggregator: %v", err)
	}

	// Initialize services
	productService := services.NewProductService(client, aggregator, cfg.Cijene.CacheSize)
	historyService := services.NewHistoryService(productService, db, cfg.Snapshot.HistoryConcurrency)
	sessionStore, err := services.NewSessionStore(productService, cfg.Search.BatchSize, cfg.Search.MaxSessions, listing.ScrollOptions{})
	if err != nil {
		log.Fatalf("Failed to create search session store: %v", err)
	}
	listService := services.NewShoppingListService(db, productService, cfg.Snapshot.HistoryConcurrency)
	// Seed the list gauge so Create/Delete adjust an absolute value
	if n, err := listService.Count(); err != nil {
		log.Printf("%v", err)
	} else {
		log.Printf("Loaded %d shopping lists", n)
	}

	cardService := services.NewDigitalCardService(db)
	watchlistService := services.NewWatchlistService(db)
	pinnedService := services.NewPinnedService(db)

	// Snapshots read upstream directly so each run sees fresh prices
	snapshotService := services.NewSnapshotService(db, client, cfg.Snapshot.Hour)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start snapshot worker in background with panic recovery
	if cfg.Snapshot.Enabled {
		go func() {
			for {
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in snapshot worker: %v - restarting in 30 seconds", r)
						}
					}()
					snapshotService.Start(ctx)
				}()

				select {
				case <-ctx.Done():
					return // Graceful shutdown
				case <-time.After(30 * time.Second):
					log.Println("Snapshot worker restarting after panic recovery...")
				}
			}
		}()
	} else {
		log.Println("Daily snapshots disabled")
	}

	// Setup router
	router := api.SetupRouter(cfg, api.Services{
		Cijene:        client,
		Products:      productService,
		History:       historyService,
		Sessions:      sessionStore,
		ShoppingLists: listService,
		Snapshots:     snapshotService,
		DigitalCards:  cardService,
		Watchlist:     watchlistService,
		Pinned:        pinnedService,
	})

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the snapshot worker
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
