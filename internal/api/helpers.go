package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// parseLimit reads the limit query param. Missing or non-positive values
// fall back to the default; large values are clamped.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultRecentLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return clampLimit(limit), true
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}
