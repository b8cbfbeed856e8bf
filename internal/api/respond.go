package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"expense_tracker/internal/domain"     // Domain errors
	"expense_tracker/internal/middleware" // Request context helpers

	"github.com/gin-gonic/gin" // Gin web framework
)

// statusOf maps error kinds to HTTP statuses
var statusOf = map[domain.ErrorKind]int{
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindDuplicateSubstring: http.StatusConflict,
	domain.KindMissingColumns:     http.StatusUnprocessableEntity,
	domain.KindValidation:         http.StatusBadRequest,
	domain.KindConflict:           http.StatusConflict,
	domain.KindUnauthenticated:    http.StatusUnauthorized,
	domain.KindInvalidCredentials: http.StatusUnauthorized,
	domain.KindForbidden:          http.StatusForbidden,
}

// respondError writes err as {"error", "kind"[, "columns"]}. Anything that is
// not a domain error is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		if status, ok := statusOf[derr.Kind]; ok {
			body := gin.H{"error": derr.Message, "kind": derr.Kind} // Message is safe to show
			if len(derr.Columns) > 0 {
				body["columns"] = derr.Columns // Missing upload columns
			}
			c.AbortWithStatusJSON(status, body)
			return
		}
	}
	middleware.Logger(c).WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "kind": domain.KindInternal})
}

// badRequest rejects malformed input
func badRequest(c *gin.Context, msg string) {
	respondError(c, domain.Validation("%s", msg))
}

// currentUser returns the authenticated caller, aborting with 401 when absent
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "kind": domain.KindUnauthenticated})
	}
	return id, ok
}

// pathID parses a positive integer path parameter, aborting with 400 otherwise
func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// queryUint parses an optional positive integer query parameter
func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, domain.Validation("invalid %s", name)
	}
	id := uint(v)
	return &id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(c *gin.Context, name string) (*domain.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, domain.Validation("%s must be YYYY-MM-DD", name)
	}
	return &d, nil
}

// queryInt parses an optional integer query parameter with a default
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("invalid %s", name)
	}
	return v, nil
}
