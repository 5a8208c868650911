package api

import (
	"github.com/gin-gonic/gin"
	"github.com/stitts-dev/fight-edge/internal/api/handlers"
	"github.com/stitts-dev/fight-edge/internal/api/middleware"
	"github.com/stitts-dev/fight-edge/pkg/config"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Analysis  *handlers.AnalysisHandler
	Odds      *handlers.OddsHandler
	Health    *handlers.HealthHandler
	Websocket gin.HandlerFunc
}

// NewRouter builds the engine with the shared middleware and every route.
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	router.GET("/health", h.Health.GetHealth)
	router.HEAD("/health", h.Health.GetHealth)
	router.GET("/ready", h.Health.GetReady)
	router.HEAD("/ready", h.Health.GetReady)

	SetupRoutes(router.Group("/api/v1"), h)
	return router
}

// SetupRoutes mounts the versioned API on group.
func SetupRoutes(group *gin.RouterGroup, h Handlers) {
	group.GET("/odds/format", h.Odds.FormatOdds)

	// The websocket only needs a run id; progress carries nothing owner specific.
	if h.Websocket != nil {
		group.GET("/ws/analysis/:id", h.Websocket)
	}

	owned := group.Group("")
	owned.Use(middleware.RequireOwner())
	{
		owned.POST("/analysis", h.Analysis.CreateAnalysis)
		owned.GET("/analysis", h.Analysis.ListAnalyses)
		owned.GET("/analysis/:id", h.Analysis.GetAnalysis)
	}
}
