package api

import (
	"net/http" // HTTP status codes

	"expense_tracker/internal/ledger" // Ledger store

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CreateCategoryHandler adds a category for the caller
func CreateCategoryHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "name is required")
			return
		}
		cat, err := store.CreateCategory(c.Request.Context(), userID, req.Name)
		if err != nil {
			respondError(c, err) // Same name twice for one user is a conflict
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "category_id": cat.ID}).Info("Category created")
		c.JSON(http.StatusCreated, cat)
	}
}

// ListCategoriesHandler lists the caller's categories
func ListCategoriesHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		cats, err := store.Categories(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cats)
	}
}

// DeleteCategoryHandler removes a category with its mappings; its expenses
// become unclassified
func DeleteCategoryHandler(store *ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		detached, err := store.DeleteCategory(ctx, userID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		dropReports(c, rdb, userID) // Category totals changed
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"category_id": id,
			"detached":    detached,
		}).Info("Category deleted")
		c.JSON(http.StatusOK, gin.H{"deleted": id, "unclassified_expenses": detached})
	}
}
