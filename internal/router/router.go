package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docextract/internal/config"
	"docextract/internal/handler"
	"docextract/internal/metrics"
	"docextract/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	extractionH *handler.ExtractionHandler,
	providerH *handler.ProviderHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks and scraping
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Group("/api/v1")

	// Reference data needs no organization
	v1.GET("/providers/catalog", providerH.Catalog)

	org := v1.Group("")
	org.Use(middleware.OrganizationContext())
	org.POST("/extractions", extractionH.Extract)
	org.GET("/providers", providerH.List)
	org.PUT("/providers/:provider", providerH.Upsert)
	org.GET("/providers/:id/usage", providerH.Usage)

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminToken(cfg.Server.AdminToken))
	admin.POST("/usage/reset", extractionH.ResetUsage)

	return r
}
