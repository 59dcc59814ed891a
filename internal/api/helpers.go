package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// currentUser returns the authenticated user's id and role set by the JWT middleware
func currentUser(c *gin.Context) (uint, string, bool) {
	v, exists := c.Get("userID") // Get userID from context
	if !exists {
		return 0, "", false
	}
	id, ok := v.(uint)
	if !ok {
		return 0, "", false
	}
	role := c.GetString("role") // Role claim, overridden by RequireRole with the stored role
	return id, role, true
}

// mustUser aborts with 401 when no user is authenticated
func mustUser(c *gin.Context) (uint, string, bool) {
	id, role, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, role, ok
}

// pageParams reads page and page_size, defaulting to 1 and 20, page_size capped at 100
func pageParams(c *gin.Context) (page, pageSize, offset int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			pageSize = min(v, 100) // Set page size if valid, capped
		}
	}
	offset = (page - 1) * pageSize // Calculate offset for pagination
	return page, pageSize, offset
}

// pageResponse builds the paginated body shared by list endpoints
func pageResponse(key string, items any, page, pageSize int, total int64) gin.H {
	return gin.H{
		key:           items,                                  // The listed items
		"page":        page,                                   // Current page
		"page_size":   pageSize,                               // Page size
		"total":       total,                                  // Total number of items
		"total_pages": (int(total) + pageSize - 1) / pageSize, // Total pages
		"cached":      false,                                  // Not from cache
	}
}

// idParam parses a numeric path parameter, answering 400 when it is not one
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}
