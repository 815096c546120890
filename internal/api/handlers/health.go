package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
	"ats-aggregator/pkg/utils"
)

const version = "1.0.0"

var startTime = time.Now()

// HealthHandler reports the enabled sources as the registry sees them. It
// does not contact any upstream.
func HealthHandler(cfg *config.Config, registry *sources.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		statuses := registry.Statuses()
		scrapers := make([]models.ScraperStatus, 0, len(statuses))
		for _, s := range statuses {
			scrapers = append(scrapers, models.ScraperStatus{Platform: s.ID, Status: s.Status})
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:      "healthy",
			Environment: cfg.Environment,
			Scrapers:    scrapers,
			Timestamp:   time.Now(),
			Version:     version,
			Uptime:      utils.FormatDuration(time.Since(startTime)),
		})
	}
}

// ReadinessHandler is ready once at least one source can be searched
func ReadinessHandler(registry *sources.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		for _, s := range registry.Statuses() {
			if s.Status == sources.StatusReady {
				return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
			}
		}
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "no sources enabled"})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": utils.FormatDuration(time.Since(startTime)),
	})
}
