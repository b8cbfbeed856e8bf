package api

import (
	"net/http" // HTTP status codes

	"expense_tracker/internal/mapping" // Mapping engine

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CreateMappingsRequest maps several substrings to one category at once
type CreateMappingsRequest struct {
	CategoryID uint     `json:"category_id" binding:"required"`      // Must be the caller's
	Substrings []string `json:"substrings" binding:"required,min=1"` // Matched case-insensitively
}

// UpsertMappingRequest points one substring at a category
type UpsertMappingRequest struct {
	Substring  string `json:"substring" binding:"required"`   // Matched case-insensitively
	CategoryID uint   `json:"category_id" binding:"required"` // Must be the caller's
}

// ListMappingsHandler lists the caller's rules
func ListMappingsHandler(engine *mapping.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		views, err := engine.List(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// CreateMappingsHandler adds rules strictly: one substring already owned by
// another category fails the whole request with 409
func CreateMappingsHandler(engine *mapping.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req CreateMappingsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "category_id and a non-empty substrings list are required")
			return
		}
		ctx := c.Request.Context()
		res, err := engine.Create(ctx, userID, req.CategoryID, req.Substrings)
		if err != nil {
			respondError(c, err)
			return
		}
		if res.Reclassified > 0 {
			dropAllReports(c, rdb) // The sweep spans every user
		}
		c.JSON(http.StatusCreated, gin.H{
			"category":     res.Category.Name,             // Target category
			"category_id":  res.Category.ID,               // Target category id
			"created":      mappingResponses(res.Created), // New rules only
			"reclassified": res.Reclassified,              // Expenses classified by the sweep
		})
	}
}

// UpsertMappingHandler creates or re-points one rule
func UpsertMappingHandler(engine *mapping.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req UpsertMappingRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "substring and category_id are required")
			return
		}
		ctx := c.Request.Context()
		m, reclassified, err := engine.Upsert(ctx, userID, req.Substring, req.CategoryID)
		if err != nil {
			respondError(c, err)
			return
		}
		if reclassified > 0 {
			dropAllReports(c, rdb)
		}
		c.JSON(http.StatusOK, gin.H{
			"mapping":      MappingResponse{ID: m.ID, Substring: m.Substring, CategoryID: m.CategoryID},
			"reclassified": reclassified,
		})
	}
}

// SweepHandler classifies every unclassified expense in the system (admin only)
func SweepHandler(engine *mapping.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		n, err := engine.Sweep(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		if n > 0 {
			dropAllReports(c, rdb)
		}
		logrus.WithField("reclassified", n).Info("Manual sweep finished")
		c.JSON(http.StatusOK, gin.H{"reclassified": n})
	}
}
