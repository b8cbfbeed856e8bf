package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"expense_tracker/internal/domain" // Importing domain models
	"expense_tracker/internal/ledger" // Ledger store
	"expense_tracker/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// UserPage is one page of the admin user listing
type UserPage struct {
	Users      []UserResponse `json:"users"`       // List of users
	Page       int            `json:"page"`        // Current page
	PageSize   int            `json:"page_size"`   // Page size
	Total      int64          `json:"total"`       // Total number of users
	TotalPages int            `json:"total_pages"` // Total pages
	Cached     bool           `json:"cached"`      // Served from Redis
}

// ListUsersHandler returns one page of users (admin only)
func ListUsersHandler(store *ledger.Store, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request context for DB and Redis
		page := 1                  // Default page number
		pageSize := 20             // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size within limits
			}
		}
		offset := (page - 1) * pageSize // Calculate offset for pagination
		cacheKey := utils.UsersListKey(offset, pageSize)

		var cached UserPage // Try to get cached response
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		users, total, err := store.ListUsers(ctx, offset, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := UserPage{
			Users:      make([]UserResponse, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (int(total) + pageSize - 1) / pageSize, // The total number of pages
		}
		for i := range users {
			resp.Users[i] = userResponse(&users[i]) // Map users to response format
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, resp)
	}
}

// MeHandler returns the authenticated user
func MeHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		user, err := store.UserByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, userResponse(user))
	}
}

// GetUserHandler returns a user by id; callers may only read themselves
// unless they are admins
func GetUserHandler(store *ledger.Store) gin.HandlerFunc {
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
		if id != userID {
			caller, err := store.UserByID(ctx, userID) // Role is read fresh on each request
			if err != nil {
				respondError(c, err)
				return
			}
			if !caller.IsAdmin() {
				respondError(c, domain.Forbidden("Admin access required"))
				return
			}
		}
		user, err := store.UserByID(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, userResponse(user))
	}
}
