package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/metrics"
	"ats-aggregator/pkg/models"
	"ats-aggregator/pkg/utils"
)

const (
	RequestIDKey = "request_id"
	maxBodyBytes = 1024 * 1024
)

// RequestID tags every request with an id, reusing the caller's X-Request-ID
// when present, and rejects oversized POST bodies. Bodies without a declared
// length are capped while read; see IsBodyTooLarge.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}
			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if c.Request().Method == http.MethodPost && c.Request().ContentLength > maxBodyBytes {
				return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
					Error:     "Request body too large",
					RequestID: requestID,
				})
			}
			if c.Request().Body != nil {
				c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes)
			}
			return next(c)
		}
	}
}

// IsBodyTooLarge reports whether err came from reading past the body cap
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// GetRequestID returns the id set by RequestID, or "" outside it
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}

// RequestLogger logs one entry per request and records the HTTP metrics
func RequestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTP(c.Request().Method, route, status, elapsed)

			fields := map[string]interface{}{
				"request_id":  GetRequestID(c),
				"method":      c.Request().Method,
				"path":        c.Request().URL.Path,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"remote_ip":   c.RealIP(),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", fields)
			} else {
				logger.Info("request served", fields)
			}
			return err
		}
	}
}
