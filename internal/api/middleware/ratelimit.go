package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"ats-aggregator/pkg/models"
	"ats-aggregator/pkg/utils"
)

// RateLimit allows requests per window for each client IP. The bucket holds
// the full window's allowance and refills evenly across it.
func RateLimit(requests int, window time.Duration) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(requests) / window.Seconds()),
		Burst:     requests,
		ExpiresIn: window,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodOptions
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:     "Unable to identify client",
				RequestID: GetRequestID(c),
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			limited := utils.NewRateLimitError()
			return c.JSON(limited.Code, models.ErrorResponse{
				Error:     limited.Message,
				RequestID: GetRequestID(c),
			})
		},
	})
}
