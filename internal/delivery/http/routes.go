package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/poundsaver/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/search", handler.SearchProducts)
			products.GET("/in-stock", handler.InStockProducts)
			products.GET("/retailer/:retailer", handler.ProductsByRetailer)
			products.GET("/:id", handler.GetProduct)
			products.POST("", handler.CreateProduct)
			products.POST("/bulk", handler.CreateProductsBulk)
		}

		retailers := v1.Group("/retailers")
		{
			retailers.GET("", handler.ListRetailers)
			retailers.GET("/:retailer", handler.GetRetailer)
		}

		prices := v1.Group("/prices")
		{
			prices.GET("/compare", handler.ComparePrices)
			prices.GET("/history/:productId", handler.PriceHistory)
			prices.POST("/history/:productId", handler.RecordPrice)
		}
	}

	return router
}
