package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mliu/reelgen/internal/api/handler"
	"github.com/mliu/reelgen/internal/api/middleware"
	"github.com/mliu/reelgen/internal/status"
	"github.com/mliu/reelgen/internal/uploads"
	"github.com/mliu/reelgen/internal/video"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	orchestrator *video.Orchestrator,
	uploadService *uploads.Service,
	stockRegistry status.StockRegistry,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	videoHandler := handler.NewVideoHandler(orchestrator)
	uploadHandler := handler.NewUploadHandler(uploadService)
	stockHandler := handler.NewStockHandler(stockRegistry)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Video generation
		v1.POST("/videos", videoHandler.CreateVideo)
		v1.GET("/videos/:id/status", videoHandler.GetVideoStatus)

		// Uploaded images
		v1.POST("/images", uploadHandler.UploadImages)
		v1.GET("/images", uploadHandler.ListImages)
		v1.DELETE("/images/:id", uploadHandler.DeleteImage)

		// Stock media registry
		v1.POST("/stock-media/register", stockHandler.RegisterStockMedia)
		v1.GET("/stock-media/:id", stockHandler.GetStockMedia)
	}

	return r
}
