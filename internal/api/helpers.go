// Package api implements the HTTP API for the audit service.
package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// maxLimit caps one page of list results.
const maxLimit = 200

// parsePagination reads the limit and offset query params. Absent or
// invalid values fall back to the defaults; limit is capped at maxLimit.
func parsePagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = defaultOffset
	}

	return limit, offset
}

// respondError sends a JSON error body with the given status.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
