package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/services"
)

// CijeneAPI is the part of the Cijene client proxied as-is.
type CijeneAPI interface {
	ListChains(ctx context.Context) (*cijene.ChainList, error)
	ListStores(ctx context.Context, chainCode string) (*cijene.StoreList, error)
	SearchStores(ctx context.Context, params cijene.StoreParams) (*cijene.StoreList, error)
	GetPrices(ctx context.Context, params cijene.PriceParams) (*cijene.StorePriceList, error)
	ChainStats(ctx context.Context) (*cijene.ChainStatList, error)
	ListArchives(ctx context.Context) (*cijene.ArchiveList, error)
	Health(ctx context.Context) (*cijene.HealthStatus, error)
}

// CijeneHandler exposes the upstream API to the web client with cache headers.
// Product lookups go through the product service so they share its cache.
type CijeneHandler struct {
	api      CijeneAPI
	products *services.ProductService
}

func NewCijeneHandler(api CijeneAPI, products *services.ProductService) *CijeneHandler {
	return &CijeneHandler{api: api, products: products}
}

func (h *CijeneHandler) ListChains(c *gin.Context) {
	chains, err := h.api.ListChains(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheReference, chains)
}

func (h *CijeneHandler) ListStores(c *gin.Context) {
	chainCode := strings.TrimSpace(c.Param("chainCode"))
	if chainCode == "" {
		abortWithError(c, http.StatusBadRequest, "chain code is required", "")
		return
	}
	stores, err := h.api.ListStores(c.Request.Context(), chainCode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheStores, stores)
}

func (h *CijeneHandler) SearchStores(c *gin.Context) {
	loc, err := parseLocation(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	stores, err := h.api.SearchStores(c.Request.Context(), cijene.StoreParams{
		Chains:   cijene.SplitChains(c.Query("chains")),
		Location: loc,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheStores, stores)
}

func (h *CijeneHandler) GetPrices(c *gin.Context) {
	eans := cijene.SplitChains(c.Query("eans"))
	if len(eans) == 0 {
		abortWithError(c, http.StatusBadRequest, "eans parameter is required", "")
		return
	}
	loc, err := parseLocation(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	prices, err := h.api.GetPrices(c.Request.Context(), cijene.PriceParams{
		EANs:     eans,
		Chains:   cijene.SplitChains(c.Query("chains")),
		Location: loc,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheReference, prices)
}

func (h *CijeneHandler) ChainStats(c *gin.Context) {
	stats, err := h.api.ChainStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, stats)
}

func (h *CijeneHandler) ListArchives(c *gin.Context) {
	archives, err := h.api.ListArchives(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheReference, archives)
}

func (h *CijeneHandler) Health(c *gin.Context) {
	status, err := h.api.Health(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheHealth, status)
}

// SearchProducts returns the raw upstream search result, without paging.
func (h *CijeneHandler) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		abortWithError(c, http.StatusBadRequest, "q parameter is required", "")
		return
	}
	products, err := h.products.Search(c.Request.Context(), services.ProductQuery{
		Query:  q,
		Date:   c.Query("date"),
		Chains: cijene.SplitChains(c.Query("chains")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheProductSearch, gin.H{"products": products})
}

func (h *CijeneHandler) GetProduct(c *gin.Context) {
	ean, ok := bindEAN(c)
	if !ok {
		return
	}
	product, err := h.products.Product(c.Request.Context(), ean, cijene.ProductParams{
		Date:   c.Query("date"),
		Chains: cijene.SplitChains(c.Query("chains")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheProduct, product)
}

func parseLocation(c *gin.Context) (cijene.Location, error) {
	loc := cijene.Location{
		City:    strings.TrimSpace(c.Query("city")),
		Address: strings.TrimSpace(c.Query("address")),
	}
	for _, f := range []struct {
		key string
		dst **float64
	}{
		{"lat", &loc.Lat},
		{"lon", &loc.Lon},
		{"d", &loc.Distance},
	} {
		raw := strings.TrimSpace(c.Query(f.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return loc, fmt.Errorf("invalid %s %q", f.key, raw)
		}
		*f.dst = &v
	}
	return loc, nil
}
