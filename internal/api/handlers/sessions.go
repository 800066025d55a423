package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/listing"
	"github.com/disscount/disscount/internal/services"
)

// SessionHandler serves server-held incremental search lists.
type SessionHandler struct {
	store *services.SessionStore
}

func NewSessionHandler(store *services.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

type sessionRequest struct {
	Query  string   `json:"query" binding:"required"`
	Date   string   `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Chains []string `json:"chains"`
	Filter string   `json:"filter"`
}

func (r sessionRequest) productQuery() services.ProductQuery {
	return services.ProductQuery{
		Query:  r.Query,
		Date:   r.Date,
		Chains: cijene.SplitChains(cijene.JoinChains(r.Chains)),
		Filter: r.Filter,
	}
}

// StepResponse reports whether a load request revealed anything.
type StepResponse struct {
	Session *services.SessionState `json:"session"`
	Loaded  bool                   `json:"loaded"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := h.store.Create(c.Request.Context(), req.productQuery())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", cacheNone)
	c.JSON(http.StatusCreated, state)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	state, err := h.store.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, state)
}

// Requery replaces the session's query; the list goes back to its first batch.
func (h *SessionHandler) Requery(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := h.store.Requery(c.Request.Context(), id, req.productQuery())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, state)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// More reveals the next batch, as a "load more" button would.
func (h *SessionHandler) More(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	state, loaded, err := h.store.More(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, StepResponse{Session: state, Loaded: loaded})
}

// Scroll reports the client's scroll position; the next batch is revealed
// when the viewport nears the end of the rendered list.
func (h *SessionHandler) Scroll(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var pos listing.ScrollPosition
	if err := c.ShouldBindJSON(&pos); err != nil {
		badRequest(c, err)
		return
	}
	state, loaded, err := h.store.Scroll(id, pos)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, StepResponse{Session: state, Loaded: loaded})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid session id", c.Param("id"))
		return uuid.Nil, false
	}
	return id, true
}
