package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/api/middleware"
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/pkg/models"
)

func TestInternalError(t *testing.T) {
	cfg := config.Default()
	err := errors.New("redis: connection refused")

	dev := internalError(cfg, err)
	assert.Equal(t, http.StatusInternalServerError, dev.Code)
	assert.Equal(t, "Internal server error", dev.Message)
	assert.Equal(t, "redis: connection refused", dev.Details)

	cfg.Environment = config.EnvProduction
	assert.Nil(t, internalError(cfg, err).Details)
}

func TestSearchJobsHandler_RejectsOversizedChunkedBody(t *testing.T) {
	logger, _ := logging.NewMemoryLogger()
	e := echo.New()
	e.Use(middleware.RequestID())
	e.POST("/api/search-jobs", SearchJobsHandler(config.Default(), nil, logger))

	body := append([]byte(`{"queries":["`), bytes.Repeat([]byte("a"), 2*1024*1024)...)
	body = append(body, []byte(`"]}`)...)
	req := httptest.NewRequest(http.MethodPost, "/api/search-jobs", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Request body too large", resp.Error)
	assert.NotEmpty(t, resp.RequestID)
}
