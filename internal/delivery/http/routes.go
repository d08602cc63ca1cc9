package http

import (
	"github.com/gin-gonic/gin"
	"github.com/stockbox/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/stores", handler.Stores)
		v1.POST("/pipeline/restock", handler.RunRestock)
		v1.POST("/create-plan", handler.CreatePlan)
		v1.POST("/stock-matching", handler.MatchStock)
		v1.POST("/party-plan", handler.PlanParty)

		lists := v1.Group("/inventory-lists")
		{
			lists.GET("", handler.ListInventoryLists)
			lists.POST("", handler.CreateInventoryList)
			lists.GET("/:id", handler.GetInventoryList)
			lists.POST("/:id/items", handler.AddInventoryItems)
			lists.GET("/:id/shopping", handler.GetShoppingEntries)
		}
	}

	return router
}
