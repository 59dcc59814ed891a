package middleware

import (
	"net/http" // HTTP status codes
	"slices"   // Role lookup

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library

	"github.com/kingsloob1/snipfair-app-sub000/internal/domain" // Importing domain models
)

// RequireRole checks the user's role from the database on each request, so
// a role change takes effect before the token expires
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// If user not found or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		// Check the stored role
		if !slices.Contains(roles, user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Set("role", user.Role) // Trust the stored role over the token's
		c.Next()
	}
}

// AdminOnlyMiddleware allows admins only
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return RequireRole(db, domain.RoleAdmin)
}
