package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/services"
)

// PinnedHandler serves one pinned collection.
type PinnedHandler struct {
	pinned *services.PinnedService
	kind   models.PinnedKind
}

func NewPinnedHandler(pinned *services.PinnedService, kind models.PinnedKind) *PinnedHandler {
	return &PinnedHandler{pinned: pinned, kind: kind}
}

func (h *PinnedHandler) GetPinned(c *gin.Context) {
	entries, err := h.pinned.List(h.kind)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, entries)
}

func (h *PinnedHandler) ReplacePinned(c *gin.Context) {
	var req models.ReplacePinnedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	entries, err := h.pinned.Replace(h.kind, req.Entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
