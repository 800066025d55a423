package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/services"
)

type ShoppingListHandler struct {
	lists     *services.ShoppingListService
	snapshots *services.SnapshotService
}

func NewShoppingListHandler(lists *services.ShoppingListService, snapshots *services.SnapshotService) *ShoppingListHandler {
	return &ShoppingListHandler{lists: lists, snapshots: snapshots}
}

// GetLists returns every list, optionally narrowed by ?q= on list and item names.
func (h *ShoppingListHandler) GetLists(c *gin.Context) {
	lists, err := h.lists.List(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, lists)
}

func (h *ShoppingListHandler) CreateList(c *gin.Context) {
	var req models.CreateShoppingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	list, err := h.lists.Create(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (h *ShoppingListHandler) GetList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.lists.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, list)
}

func (h *ShoppingListHandler) UpdateList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateShoppingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	list, err := h.lists.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ShoppingListHandler) DeleteList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.lists.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "shopping list deleted"})
}

// AddItem adds a product; an EAN already on the list merges quantities and
// answers 200 instead of 201.
func (h *ShoppingListHandler) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.AddShoppingListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.lists.AddItem(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if resp.Merged {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (h *ShoppingListHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	var req models.UpdateShoppingListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.lists.UpdateItem(id, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ShoppingListHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	if err := h.lists.DeleteItem(id, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

// GetSummary prices the list at every chain for ?date= (default: latest).
func (h *ShoppingListHandler) GetSummary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := h.lists.Summary(c.Request.Context(), id, cijene.ProductParams{
		Date:   c.Query("date"),
		Chains: cijene.SplitChains(c.Query("chains")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, summary)
}

// GetPriceChange compares the first and last recorded totals in ?period=.
func (h *ShoppingListHandler) GetPriceChange(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	period, err := pricing.ParsePeriod(c.Query("period"))
	if err != nil {
		badRequest(c, err)
		return
	}
	change, err := h.lists.PriceChange(id, period, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, change)
}

// GetValueHistory returns the recorded daily totals of a list for charting.
func (h *ShoppingListHandler) GetValueHistory(c *gin.Context) {
	if h.snapshots == nil {
		abortWithError(c, http.StatusServiceUnavailable, "snapshot service not available", "")
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.lists.Get(id); err != nil {
		respondError(c, err)
		return
	}
	period, err := pricing.ParsePeriod(c.Query("period"))
	if err != nil {
		badRequest(c, err)
		return
	}

	snapshots, err := h.snapshots.GetHistory(id, period)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, models.ValueHistoryResponse{
		Snapshots: snapshots,
		Period:    string(period),
	})
}
