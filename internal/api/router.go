package api

import (
	"net/http" // HTTP status codes
	"time"     // CORS max age

	"expense_tracker/internal/config"     // Application configuration
	"expense_tracker/internal/ingest"     // Spreadsheet ingestion
	"expense_tracker/internal/ledger"     // Ledger store
	"expense_tracker/internal/mapping"    // Mapping engine
	"expense_tracker/internal/middleware" // Auth and logging middleware
	"expense_tracker/internal/report"     // Aggregation engine

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// NewRouter wires every route. rdb may be nil, which disables caching.
func NewRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	store := ledger.New(db)               // Ledger store over the shared pool
	rules := mapping.NewEngine(store)     // Substring rules and sweeps
	ingester := ingest.NewIngester(store) // Statement uploads
	reports := NewReports(report.NewEngine(store), rdb, cfg.CacheTTL)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger()) // Recover panics, log every request
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins, // Front-end origins
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", HealthHandler(store)) // Liveness probe

	public := r.Group("/api")
	public.POST("/register", RegisterHandler(store, rdb))                 // Registration endpoint
	public.POST("/login", LoginHandler(store, cfg.JWTSecret, cfg.JWTTTL)) // Login endpoint

	authed := r.Group("/api")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret)) // Everything below needs a token

	authed.GET("/users", middleware.AdminOnlyMiddleware(db), ListUsersHandler(store, rdb, cfg.CacheTTL)) // Admin listing
	authed.GET("/users/me", MeHandler(store))                                                            // Current user
	authed.GET("/users/:id", GetUserHandler(store))                                                      // Self or admin

	authed.POST("/accounts", CreateAccountHandler(store))
	authed.GET("/accounts", ListAccountsHandler(store))
	authed.GET("/accounts/:id", GetAccountHandler(store))

	authed.POST("/categories", CreateCategoryHandler(store))
	authed.GET("/categories", ListCategoriesHandler(store))
	authed.DELETE("/categories/:id", DeleteCategoryHandler(store, rdb))

	authed.POST("/expenses", CreateExpenseHandler(rules, rdb))
	authed.GET("/expenses", ListExpensesHandler(store))
	authed.POST("/expenses/upload", UploadExpensesHandler(ingester, rdb))
	authed.GET("/expenses/:id", GetExpenseHandler(store))
	authed.PUT("/expenses/:id/category", SetExpenseCategoryHandler(store, rdb))

	authed.GET("/mappings", ListMappingsHandler(rules))
	authed.POST("/mappings", CreateMappingsHandler(rules, rdb))                                  // Strict
	authed.PUT("/mappings", UpsertMappingHandler(rules, rdb))                                    // Create or re-point
	authed.POST("/mappings/sweep", middleware.AdminOnlyMiddleware(db), SweepHandler(rules, rdb)) // Touches every user

	summary := authed.Group("/summary")
	summary.GET("", reports.Summary())
	summary.GET("/categories", reports.Categories())
	summary.GET("/monthly", reports.Monthly())
	summary.GET("/latest", reports.Latest())
	summary.GET("/split", reports.Split())
	summary.GET("/month-categories", reports.MonthCategories())
	summary.GET("/trend", reports.Trend())
	summary.GET("/top", reports.Top())
	summary.GET("/visual", reports.Visual())

	return r
}

// HealthHandler reports whether the database answers a ping
func HealthHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := store.DB().DB() // Underlying connection pool
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			middleware.Logger(c).WithError(err).Error("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
