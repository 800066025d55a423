package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/services"
)

type DigitalCardHandler struct {
	cards *services.DigitalCardService
}

func NewDigitalCardHandler(cards *services.DigitalCardService) *DigitalCardHandler {
	return &DigitalCardHandler{cards: cards}
}

// GetCards returns every card, optionally narrowed by ?q= on title, type and note.
func (h *DigitalCardHandler) GetCards(c *gin.Context) {
	cards, err := h.cards.List(c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, cards)
}

func (h *DigitalCardHandler) GetCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	card, err := h.cards.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, cacheNone, card)
}

func (h *DigitalCardHandler) CreateCard(c *gin.Context) {
	var req models.DigitalCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	card, err := h.cards.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *DigitalCardHandler) UpdateCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req models.DigitalCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	card, err := h.cards.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *DigitalCardHandler) DeleteCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.cards.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "digital card deleted"})
}
