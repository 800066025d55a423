package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/listing"
	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/services"
)

type ProductHandler struct {
	products  *services.ProductService
	history   *services.HistoryService
	batchSize int
}

func NewProductHandler(products *services.ProductService, history *services.HistoryService, batchSize int) *ProductHandler {
	if batchSize < 1 {
		batchSize = listing.DefaultBatchSize
	}
	return &ProductHandler{products: products, history: history, batchSize: batchSize}
}

// SearchResponse is one stateless page of search results.
type SearchResponse struct {
	Query services.ProductQuery              `json:"query"`
	Page  listing.Page[services.ProductView] `json:"page"`
}

// SearchProducts searches and returns the first `batches` batches of results.
// Clients that keep their own list state use this instead of a session.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		abortWithError(c, http.StatusBadRequest, "q parameter is required", "")
		return
	}
	batches := 1
	if raw := c.Query("batches"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, "batches must be a positive integer", raw)
			return
		}
		batches = n
	}

	query := services.ProductQuery{
		Query:  q,
		Date:   c.Query("date"),
		Chains: cijene.SplitChains(c.Query("chains")),
		Filter: c.Query("filter"),
	}
	products, err := h.products.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	pager, err := listing.NewPager(products, h.batchSize)
	if err != nil {
		respondError(c, err)
		return
	}
	pager.Reveal(batches)
	if extra := pager.BatchesRevealed() - 1; extra > 0 {
		metrics.SearchBatchesRevealed.WithLabelValues("query").Add(float64(extra))
	}

	respondJSON(c, cacheProductSearch, SearchResponse{
		Query: query,
		Page:  listing.MapPage(pager.Page(), h.products.Views),
	})
}

// GetProduct returns one product with its aggregated prices.
func (h *ProductHandler) GetProduct(c *gin.Context) {
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
	respondJSON(c, cacheProduct, h.products.View(product))
}

// GetHistory returns per-chain average prices over a period. source=stored
// reads recorded snapshots instead of querying upstream once per day.
func (h *ProductHandler) GetHistory(c *gin.Context) {
	ean, ok := bindEAN(c)
	if !ok {
		return
	}
	period, err := pricing.ParsePeriod(c.Query("period"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var resp *services.HistoryResponse
	switch source := c.DefaultQuery("source", "live"); source {
	case "live":
		resp, err = h.history.ProductHistory(c.Request.Context(), ean, period, cijene.SplitChains(c.Query("chains")))
	case "stored":
		resp, err = h.history.StoredHistory(ean, period)
	default:
		abortWithError(c, http.StatusBadRequest, "source must be live or stored", source)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheProduct, resp)
}
