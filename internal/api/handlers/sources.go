package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ats-aggregator/internal/platforms"
	"ats-aggregator/internal/sources"
)

type platformStatus struct {
	platforms.Platform
	Supported bool   `json:"supported"`
	Status    string `json:"status,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// SourcesHandler lists the platform catalog with each entry's standing in
// the registry, plus the outbound limiter's per-host counters
func SourcesHandler(registry *sources.Registry, limiter *sources.RateLimiter) echo.HandlerFunc {
	return func(c echo.Context) error {
		supported := map[string]bool{}
		for _, id := range registry.Supported() {
			supported[id] = true
		}
		statuses := map[string]sources.SourceStatus{}
		for _, s := range registry.Statuses() {
			statuses[s.ID] = s
		}

		out := make([]platformStatus, 0, len(platforms.All()))
		for _, p := range platforms.All() {
			entry := platformStatus{Platform: p, Supported: supported[p.ID]}
			if s, ok := statuses[p.ID]; ok {
				entry.Status, entry.Reason = s.Status, s.Reason
			} else if entry.Supported {
				entry.Status = "disabled"
			}
			out = append(out, entry)
		}
		hosts := []sources.HostStats{}
		if limiter != nil {
			hosts = limiter.Stats()
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"platforms": out, "hosts": hosts})
	}
}
