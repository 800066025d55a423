package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/services"
)

// Cache-Control values for the proxied upstream data.
const (
	cacheProductSearch = "public, max-age=10800, s-maxage=21600"
	cacheProduct       = "public, max-age=21600, s-maxage=43200"
	cacheStores        = "public, max-age=1800, s-maxage=3600"
	cacheReference     = "public, max-age=3600, s-maxage=7200"
	cacheHealth        = "public, max-age=30, s-maxage=60"
	cacheNone          = "no-cache"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(c *gin.Context, cacheControl string, body any) {
	c.Header("Cache-Control", cacheControl)
	c.JSON(http.StatusOK, body)
}

func abortWithError(c *gin.Context, status int, message, details string) {
	c.Header("Cache-Control", cacheNone)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Details: details})
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, "invalid request", err.Error())
}

// respondError maps service and upstream errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var apiErr *cijene.APIError
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			log.Printf("Upstream error on %s: %v", c.FullPath(), err)
		}
		abortWithError(c, status, apiErr.Message, apiErr.Body)
	case errors.Is(err, cijene.ErrInvalidParams):
		badRequest(c, err)
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrListNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrCardNotFound),
		errors.Is(err, services.ErrWatchNotFound):
		abortWithError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, services.ErrAlreadyWatched):
		abortWithError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, services.ErrInvalidItem),
		errors.Is(err, services.ErrInvalidCard),
		errors.Is(err, services.ErrInvalidWatch),
		errors.Is(err, services.ErrInvalidPinned):
		badRequest(c, err)
	default:
		log.Printf("Request %s failed: %v", c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusBadRequest, "invalid "+name, c.Param(name))
		return 0, false
	}
	return uint(id), true
}

// eanURI validates the :ean path parameter.
type eanURI struct {
	EAN string `uri:"ean" binding:"required,numeric,min=8,max=14"`
}

func bindEAN(c *gin.Context) (string, bool) {
	var uri eanURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid ean", err.Error())
		return "", false
	}
	return uri.EAN, true
}
