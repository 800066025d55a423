package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/disscount/disscount/internal/api/handlers"
	"github.com/disscount/disscount/internal/config"
	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/services"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Cijene        handlers.CijeneAPI
	Products      *services.ProductService
	History       *services.HistoryService
	Sessions      *services.SessionStore
	ShoppingLists *services.ShoppingListService
	Snapshots     *services.SnapshotService
	DigitalCards  *services.DigitalCardService
	Watchlist     *services.WatchlistService
	Pinned        *services.PinnedService
}

func SetupRouter(cfg config.Config, svc Services) *gin.Engine {
	router := gin.Default()
	router.Use(metrics.GinMiddleware())
	router.Use(securityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	cijeneHandler := handlers.NewCijeneHandler(svc.Cijene, svc.Products)
	productHandler := handlers.NewProductHandler(svc.Products, svc.History, cfg.Search.BatchSize)
	sessionHandler := handlers.NewSessionHandler(svc.Sessions)
	listHandler := handlers.NewShoppingListHandler(svc.ShoppingLists, svc.Snapshots)
	cardHandler := handlers.NewDigitalCardHandler(svc.DigitalCards)
	watchlistHandler := handlers.NewWatchlistHandler(svc.Watchlist)
	pinnedStores := handlers.NewPinnedHandler(svc.Pinned, models.PinnedStore)
	pinnedPlaces := handlers.NewPinnedHandler(svc.Pinned, models.PinnedPlace)

	api := router.Group("/api")
	{
		// Upstream proxy
		proxy := api.Group("/cijene")
		{
			proxy.GET("/chains", cijeneHandler.ListChains)
			proxy.GET("/stores", cijeneHandler.SearchStores)
			proxy.GET("/stores/:chainCode", cijeneHandler.ListStores)
			proxy.GET("/prices", cijeneHandler.GetPrices)
			proxy.GET("/chain-stats", cijeneHandler.ChainStats)
			proxy.GET("/archives", cijeneHandler.ListArchives)
			proxy.GET("/health", cijeneHandler.Health)
			proxy.GET("/products", cijeneHandler.SearchProducts)
			proxy.GET("/products/:ean", cijeneHandler.GetProduct)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.SearchProducts)
			products.GET("/:ean", productHandler.GetProduct)
			products.GET("/:ean/history", productHandler.GetHistory)
		}

		sessions := api.Group("/search-sessions")
		{
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.PUT("/:id", sessionHandler.Requery)
			sessions.DELETE("/:id", sessionHandler.Delete)
			sessions.POST("/:id/more", sessionHandler.More)
			sessions.POST("/:id/scroll", sessionHandler.Scroll)
		}

		lists := api.Group("/shopping-lists")
		{
			lists.GET("", listHandler.GetLists)
			lists.POST("", listHandler.CreateList)
			lists.GET("/:id", listHandler.GetList)
			lists.PUT("/:id", listHandler.UpdateList)
			lists.DELETE("/:id", listHandler.DeleteList)
			lists.POST("/:id/items", listHandler.AddItem)
			lists.PUT("/:id/items/:itemId", listHandler.UpdateItem)
			lists.DELETE("/:id/items/:itemId", listHandler.DeleteItem)
			lists.GET("/:id/summary", listHandler.GetSummary)
			lists.GET("/:id/price-change", listHandler.GetPriceChange)
			lists.GET("/:id/history", listHandler.GetValueHistory)
		}

		cards := api.Group("/digital-cards")
		{
			cards.GET("", cardHandler.GetCards)
			cards.POST("", cardHandler.CreateCard)
			cards.GET("/:id", cardHandler.GetCard)
			cards.PUT("/:id", cardHandler.UpdateCard)
			cards.DELETE("/:id", cardHandler.DeleteCard)
		}

		watchlist := api.Group("/watchlist")
		{
			watchlist.GET("", watchlistHandler.GetWatchlist)
			watchlist.POST("", watchlistHandler.AddItem)
			watchlist.GET("/product/:ean", watchlistHandler.GetByProduct)
			watchlist.DELETE("/:id", watchlistHandler.RemoveItem)
		}

		api.GET("/pinned-stores", pinnedStores.GetPinned)
		api.PUT("/pinned-stores", pinnedStores.ReplacePinned)
		api.GET("/pinned-places", pinnedPlaces.GetPinned)
		api.PUT("/pinned-places", pinnedPlaces.ReplacePinned)

		if svc.Snapshots != nil {
			snapshotHandler := handlers.NewSnapshotHandler(svc.Snapshots)
			snapshots := api.Group("/snapshots")
			{
				snapshots.GET("/status", snapshotHandler.GetStatus)
				snapshots.POST("", snapshotHandler.TakeSnapshot)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.FrontendDist != "" && dirExists(cfg.FrontendDist) {
		serveFrontend(router, cfg.FrontendDist)
	}

	return router
}

func serveFrontend(router *gin.Engine, frontendPath string) {
	indexPath := filepath.Join(frontendPath, "index.html")

	router.Static("/assets", filepath.Join(frontendPath, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(frontendPath, "favicon.ico"))
	router.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})

	// SPA fallback - serve index.html for all non-API routes
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.File(indexPath)
	})
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
