package api

import (
	"context"       // Report computation
	"encoding/json" // Cached payloads
	"fmt"           // Cache key views
	"net/http"      // HTTP status codes
	"time"          // Time durations

	"expense_tracker/internal/domain"     // Domain errors
	"expense_tracker/internal/middleware" // Request logger
	"expense_tracker/internal/report"     // Aggregation engine
	"expense_tracker/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// defaultTopN is used when a request omits n
const defaultTopN = 5

// Reports serves the aggregation endpoints through the Redis cache
type Reports struct {
	engine *report.Engine
	rdb    *redis.Client
	ttl    time.Duration
}

// NewReports wires the report handlers. rdb may be nil.
func NewReports(engine *report.Engine, rdb *redis.Client, ttl time.Duration) *Reports {
	return &Reports{engine: engine, rdb: rdb, ttl: ttl}
}

// serve answers from cache when possible, otherwise computes, caches and
// responds. view must encode every parameter of the request.
func (r *Reports) serve(c *gin.Context, view string, build func(ctx context.Context, userID uint) (any, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	gen, err := utils.SummaryGeneration(ctx, r.rdb, userID) // Read before build so a racing write retires this key
	if err != nil {
		middleware.Logger(c).WithError(err).Warn("Report cache unavailable")
		r.compute(c, userID, build)
		return
	}
	key := utils.SummaryKey(userID, gen, view)
	var cached json.RawMessage
	if found, err := utils.GetCache(ctx, r.rdb, key, &cached); err == nil && found {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	}
	out, err := build(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := utils.SetCache(ctx, r.rdb, key, out, r.ttl); err != nil {
		middleware.Logger(c).WithError(err).Warn("Report cache write failed")
	}
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, out)
}

// compute answers without touching the cache
func (r *Reports) compute(c *gin.Context, userID uint, build func(ctx context.Context, userID uint) (any, error)) {
	out, err := build(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// dropReports retires userID's cached reports after a write
func dropReports(c *gin.Context, rdb *redis.Client, userID uint) {
	if err := utils.InvalidateSummaries(c.Request.Context(), rdb, userID); err != nil {
		middleware.Logger(c).WithError(err).Error("Report cache invalidation failed")
	}
}

// dropAllReports retires every user's cached reports after a sweep
func dropAllReports(c *gin.Context, rdb *redis.Client) {
	if err := utils.InvalidateAllSummaries(c.Request.Context(), rdb); err != nil {
		middleware.Logger(c).WithError(err).Error("Report cache invalidation failed")
	}
}

// Summary returns totals by category and by month
func (r *Reports) Summary() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.serve(c, "all", func(ctx context.Context, userID uint) (any, error) {
			return r.engine.Summary(ctx, userID)
		})
	}
}

// Categories returns all-time totals per category
func (r *Reports) Categories() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.serve(c, "categories", func(ctx context.Context, userID uint) (any, error) {
			return r.engine.TotalByCategory(ctx, userID)
		})
	}
}

// Monthly returns totals per month
func (r *Reports) Monthly() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.serve(c, "monthly", func(ctx context.Context, userID uint) (any, error) {
			return r.engine.TotalByMonth(ctx, userID)
		})
	}
}

// Latest returns the most recent month with data, or null
func (r *Reports) Latest() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.serve(c, "latest", func(ctx context.Context, userID uint) (any, error) {
			month, ok, err := r.engine.LatestMonth(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return gin.H{"month": nil}, nil
			}
			return gin.H{"month": month}, nil
		})
	}
}

// Split returns spending and income for ?year=&month=
func (r *Reports) Split() gin.HandlerFunc {
	return func(c *gin.Context) {
		year, month, err := yearMonth(c)
		if err != nil {
			respondError(c, err)
			return
		}
		r.serve(c, fmt.Sprintf("split:%d-%02d", year, month), func(ctx context.Context, userID uint) (any, error) {
			return r.engine.Split(ctx, userID, year, month)
		})
	}
}

// MonthCategories returns spending per category for ?year=&month=
func (r *Reports) MonthCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		year, month, err := yearMonth(c)
		if err != nil {
			respondError(c, err)
			return
		}
		r.serve(c, fmt.Sprintf("month-categories:%d-%02d", year, month), func(ctx context.Context, userID uint) (any, error) {
			return r.engine.ByCategoryForMonth(ctx, userID, year, month)
		})
	}
}

// Trend returns twelve monthly splits for ?year=
func (r *Reports) Trend() gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := queryInt(c, "year", 0)
		if err != nil {
			respondError(c, err)
			return
		}
		if year == 0 {
			badRequest(c, "year is required")
			return
		}
		r.serve(c, fmt.Sprintf("trend:%d", year), func(ctx context.Context, userID uint) (any, error) {
			return r.engine.Trend(ctx, userID, year)
		})
	}
}

// Top returns the ?n= highest spending categories
func (r *Reports) Top() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := queryInt(c, "n", defaultTopN)
		if err != nil {
			respondError(c, err)
			return
		}
		r.serve(c, fmt.Sprintf("top:%d", n), func(ctx context.Context, userID uint) (any, error) {
			return r.engine.TopCategories(ctx, userID, n)
		})
	}
}

// Visual returns the dashboard bundle for ?year=&month= (both or neither)
func (r *Reports) Visual() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := queryInt(c, "n", defaultTopN)
		if err != nil {
			respondError(c, err)
			return
		}
		var period *time.Time // Latest month with data when omitted
		view := fmt.Sprintf("visual:latest:%d", n)
		if c.Query("year") != "" || c.Query("month") != "" {
			year, month, err := yearMonth(c)
			if err != nil {
				respondError(c, err)
				return
			}
			t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			period = &t
			view = fmt.Sprintf("visual:%d-%02d:%d", year, month, n)
		}
		r.serve(c, view, func(ctx context.Context, userID uint) (any, error) {
			return r.engine.Visual(ctx, userID, period, n)
		})
	}
}

// yearMonth reads the required year and month query parameters
func yearMonth(c *gin.Context) (int, time.Month, error) {
	year, err := queryInt(c, "year", 0)
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(c, "month", 0)
	if err != nil {
		return 0, 0, err
	}
	if year == 0 || month == 0 {
		return 0, 0, domain.Validation("year and month are required")
	}
	if month < 1 || month > 12 {
		return 0, 0, domain.Validation("month must be between 1 and 12")
	}
	return year, time.Month(month), nil
}
