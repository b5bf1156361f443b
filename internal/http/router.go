package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.ngs.io/seaice-api/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty
// allowedOrigins list allows all origins.
func SetupRouter(volumeUC *usecase.VolumeUseCase, allowedOrigins []string, logger *zap.SugaredLogger) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))
	router.Use(RequestID())
	router.Use(RequestLogger(logger))

	// Create handler.
	handler := NewHandler(volumeUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/regions", handler.GetRegions)

	// Regional volumes.
	volumes := v1.Group("/volumes")
	volumes.GET("", handler.GetVolumes)
	volumes.GET("/latest", handler.GetLatestVolume)
	volumes.GET("/regions/:region", handler.GetRegionSeries)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
