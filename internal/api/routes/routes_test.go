package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/aggregator"
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/search"
	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
)

type stubSource struct {
	id       string
	postings []models.Posting
}

func (s stubSource) ID() string { return s.id }

func (s stubSource) Search(_ context.Context, c models.SearchCriteria) ([]models.Posting, error) {
	return sources.Filter(c, s.postings), nil
}

func newServer(t *testing.T, cfg *config.Config, stubs ...stubSource) *echo.Echo {
	t.Helper()
	return newServerWithLimiter(t, cfg, nil, stubs...)
}

func newServerWithLimiter(t *testing.T, cfg *config.Config, limiter *sources.RateLimiter, stubs ...stubSource) *echo.Echo {
	t.Helper()
	constructors := map[string]sources.Constructor{}
	configs := map[string]config.SourceConfig{}
	for _, stub := range stubs {
		constructors[stub.id] = func(string, config.SourceConfig, sources.Deps) (sources.Source, error) {
			return stub, nil
		}
		configs[stub.id] = config.SourceConfig{Enabled: true}
	}
	logger, _ := logging.NewMemoryLogger()
	registry := sources.NewRegistry(constructors, configs, sources.Deps{})
	agg := aggregator.New(registry, aggregator.WithLogger(logger))

	e := echo.New()
	SetupRoutes(e, cfg, Dependencies{Registry: registry, Limiter: limiter, Search: search.NewService(agg), Logger: logger})
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestSearchJobs(t *testing.T) {
	posted := time.Now().Add(-time.Hour)
	e := newServer(t, config.Default(),
		stubSource{id: "greenhouse", postings: []models.Posting{
			{SourceID: "1", Source: "greenhouse", Title: "Platform Engineer", PostedDate: posted},
		}},
		stubSource{id: "lever", postings: []models.Posting{
			{SourceID: "7", Source: "lever", Title: "Platform Engineer", PostedDate: posted.Add(time.Minute)},
			{SourceID: "8", Source: "lever", Title: "Accountant", PostedDate: posted},
		}},
	)

	rec := do(e, http.MethodPost, "/api/search-jobs", `{"queries":"platform engineer","dateRange":"7"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var resp models.SearchResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Stats.Total)
	assert.Equal(t, map[string]int{"greenhouse": 1, "lever": 1}, resp.Stats.ByPlatform)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "lever:7", resp.Results[0].ID)
	assert.Equal(t, "lever", resp.Results[0].Platform)
	assert.Equal(t, "greenhouse", resp.Results[1].Platform)
}

func TestSearchJobs_Errors(t *testing.T) {
	e := newServer(t, config.Default(), stubSource{id: "lever"})

	tests := []struct {
		name    string
		body    string
		message string
		details bool
	}{
		{"missing queries", `{"platforms":["lever"]}`, "Invalid request data", true},
		{"malformed json", `{"queries":`, "Invalid request data", true},
		{"unsupported date range", `{"queries":"go","dateRange":"2"}`, "Invalid request data", true},
		{"no active source", `{"queries":"go","platforms":["workday"]}`, "No active scrapers available for the selected platforms", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/search-jobs", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp models.ErrorResponse
			decode(t, rec, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.details, resp.Details != nil)
		})
	}
}

func TestHealth(t *testing.T) {
	e := newServer(t, config.Default(), stubSource{id: "greenhouse"}, stubSource{id: "lever"})

	rec := do(e, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, config.EnvDevelopment, resp.Environment)
	assert.Equal(t, []models.ScraperStatus{
		{Platform: "greenhouse", Status: "ready"},
		{Platform: "lever", Status: "ready"},
	}, resp.Scrapers)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(newServer(t, config.Default()), http.MethodGet, "/health/ready", "").Code)
}

func TestSourcesAndMetrics(t *testing.T) {
	logger, _ := logging.NewMemoryLogger()
	limiter := sources.NewRateLimiter(sources.LimiterConfig{MaxFailures: 1}, logger)
	require.NoError(t, limiter.Wait(context.Background(), "api.lever.co", 0))
	limiter.RecordFailure("api.lever.co", errors.New("503"))
	e := newServerWithLimiter(t, config.Default(), limiter, stubSource{id: "lever"})

	rec := do(e, http.MethodGet, "/api/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Platforms []struct {
			ID        string `json:"id"`
			Supported bool   `json:"supported"`
			Status    string `json:"status"`
		} `json:"platforms"`
		Hosts []sources.HostStats `json:"hosts"`
	}
	decode(t, rec, &body)

	byID := map[string]string{}
	for _, p := range body.Platforms {
		byID[p.ID] = p.Status
	}
	assert.Equal(t, "ready", byID["lever"])
	assert.Equal(t, "", byID["workday"])
	require.Len(t, body.Hosts, 1)
	assert.Equal(t, "api.lever.co", body.Hosts[0].Host)
	assert.Equal(t, "open", body.Hosts[0].State)
	assert.Equal(t, int64(1), body.Hosts[0].Failures)

	do(e, http.MethodGet, "/api/health", "")
	rec = do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ats_http_requests_total")
}
