package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"ats-aggregator/internal/api/handlers"
	"ats-aggregator/internal/api/middleware"
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/metrics"
	"ats-aggregator/internal/search"
	"ats-aggregator/internal/sources"
)

// Dependencies are the services the routes are served from
type Dependencies struct {
	Registry *sources.Registry
	Limiter  *sources.RateLimiter
	Search   *search.Service
	Logger   logging.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(middleware.CORSConfig())
	if cfg.Server.RequestTimeout > 0 {
		e.Use(middleware.TimeoutConfig(cfg.Server.RequestTimeout))
	}

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Registry))
	}

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Probes and metrics stay outside the per-client rate limit
	api := e.Group("/api", middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	{
		api.GET("/health", handlers.HealthHandler(cfg, deps.Registry))
		api.GET("/sources", handlers.SourcesHandler(deps.Registry, deps.Limiter))
		api.POST("/search-jobs", handlers.SearchJobsHandler(cfg, deps.Search, deps.Logger))
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "ATS Job Aggregator",
			"status":  "running",
		})
	})
}
