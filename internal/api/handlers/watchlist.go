package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/services"
)

type WatchlistHandler struct {
	watchlist *services.WatchlistService
}

func NewWatchlistHandler(watchlist *services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	items, err := h.watchlist.List()
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, items)
}

// GetByProduct answers whether a product is watched; 404 when it is not.
func (h *WatchlistHandler) GetByProduct(c *gin.Context) {
	ean, ok := bindEAN(c)
	if !ok {
		return
	}
	item, err := h.watchlist.GetByEAN(ean)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, item)
}

// AddItem starts watching a product; 409 if it is already watched.
func (h *WatchlistHandler) AddItem(c *gin.Context) {
	var req models.AddWatchlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.watchlist.Add(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *WatchlistHandler) RemoveItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.watchlist.Remove(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
