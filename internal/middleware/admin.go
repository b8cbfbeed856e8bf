package middleware

import (
	"net/http" // HTTP status codes

	"expense_tracker/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AdminOnlyMiddleware checks the user's role from the database on each
// request, so a demotion takes effect before the token expires
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c) // Get userID from context
		if !ok {
			abort(c, http.StatusUnauthorized, domain.KindUnauthenticated, "Unauthorized")
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, userID).Error; err != nil {
			abort(c, http.StatusForbidden, domain.KindForbidden, "Admin access required")
			return
		}
		if !user.IsAdmin() {
			abort(c, http.StatusForbidden, domain.KindForbidden, "Admin access required")
			return
		}
		c.Next() // If admin, proceed to the next handler
	}
}
