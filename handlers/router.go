package handlers

import (
	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine serving the node API, health and metrics
func NewRouter(nodeHandler *NodeHandler, collector *metrics.Collector, logger *zap.Logger) *gin.Engine {
	logger = logging.OrNop(logger)

	r := gin.New()
	r.Use(RequestID(), Recovery(logger), Logger(logger), Metrics(collector))

	r.GET("/healthz", nodeHandler.Health)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	// API routes
	api := r.Group("/api")
	{
		api.POST("/nodes", nodeHandler.CreateNode)
		api.GET("/nodes/roots", nodeHandler.ListRoots)
		api.GET("/nodes/:id/children", nodeHandler.ListChildren)
		api.DELETE("/nodes/:id", nodeHandler.DeleteNode)
		api.PUT("/nodes/:id/translations/:locale", nodeHandler.PutTranslation)
	}

	return r
}
