package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/services"
)

type SnapshotHandler struct {
	snapshots *services.SnapshotService
}

func NewSnapshotHandler(snapshots *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// GetStatus returns the snapshot worker state and stored row counts.
func (h *SnapshotHandler) GetStatus(c *gin.Context) {
	respondJSON(c, cacheNone, h.snapshots.Status())
}

// TakeSnapshot records today's prices now, regardless of the schedule.
func (h *SnapshotHandler) TakeSnapshot(c *gin.Context) {
	result, err := h.snapshots.ForceTakeSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
