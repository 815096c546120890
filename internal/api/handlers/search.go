package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ats-aggregator/internal/aggregator"
	"ats-aggregator/internal/api/middleware"
	"ats-aggregator/internal/api/validation"
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/search"
	"ats-aggregator/pkg/models"
	"ats-aggregator/pkg/utils"
)

var validate = validation.New()

// SearchJobsHandler handles POST /api/search-jobs
func SearchJobsHandler(cfg *config.Config, svc *search.Service, logger logging.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.GetRequestID(c)
		log := logger.WithField("request_id", requestID)

		var req models.SearchRequest
		if err := c.Bind(&req); err != nil {
			log.Warn("failed to bind search request", map[string]interface{}{"error": err.Error()})
			if middleware.IsBodyTooLarge(err) {
				return respondError(c, utils.NewPayloadTooLargeError())
			}
			return respondError(c, utils.NewValidationError([]string{bindMessage(err)}))
		}
		if err := validate.Struct(&req); err != nil {
			log.Warn("search request validation failed", map[string]interface{}{"error": err.Error()})
			return respondError(c, utils.NewValidationError(validation.Messages(err)))
		}

		log.Info("processing search request", map[string]interface{}{
			"queries":   len(req.Queries),
			"platforms": req.Platforms,
			"dateRange": req.DateRange,
		})

		resp, err := svc.Search(c.Request().Context(), req)
		if errors.Is(err, aggregator.ErrNoActiveSources) {
			log.Warn("no active sources for search", map[string]interface{}{"platforms": req.Platforms})
			return respondError(c, utils.NewNoActiveSourcesError())
		}
		if err != nil {
			log.Error("search failed", map[string]interface{}{"error": err.Error()})
			return respondError(c, internalError(cfg, err))
		}

		log.Info("search completed", map[string]interface{}{
			"total":    resp.Stats.Total,
			"returned": len(resp.Results),
		})
		return c.JSON(http.StatusOK, resp)
	}
}

func respondError(c echo.Context, e *utils.CustomError) error {
	return c.JSON(e.Code, models.ErrorResponse{
		Success:   false,
		Error:     e.Message,
		Details:   e.Details,
		RequestID: middleware.GetRequestID(c),
	})
}

// internalError exposes err's message in development only
func internalError(cfg *config.Config, err error) *utils.CustomError {
	if cfg.IsDevelopment() {
		return utils.NewInternalServerError(err.Error())
	}
	return utils.NewInternalServerError(nil)
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
