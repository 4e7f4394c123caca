package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/services"
	"github.com/sareehouse/storefront-api/utils"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondPage(c *gin.Context, data interface{}, page, limit int, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": services.NewPagination(page, limit, total),
	})
}

func respondFailure(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// respondError maps a service error onto the HTTP error envelope.
// Anything unrecognised is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var cerr *services.ConflictError
	var uerr *utils.FileUploadError

	switch {
	case errors.As(err, &verr):
		respondFailure(c, http.StatusBadRequest, verr.Code, verr.Message)
	case errors.As(err, &cerr):
		respondFailure(c, http.StatusBadRequest, cerr.Code, cerr.Message)
	case errors.As(err, &uerr):
		respondFailure(c, http.StatusBadRequest, uerr.Code, uerr.Message)
	case errors.Is(err, services.ErrUnauthorized):
		respondFailure(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid credentials")
	case errors.Is(err, services.ErrForbidden):
		respondFailure(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, services.ErrNotFound):
		respondFailure(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	default:
		zlog.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		respondFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

// bindJSON binds the request body, writing a 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+err.Error())
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter, writing a 400 on failure
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pageParams reads ?page= and ?limit=, leaving bad values to the service defaults
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return page, limit
}

func queryBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
