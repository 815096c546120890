package greenhouse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/sources"
	"ats-aggregator/internal/sources/sourcestest"
	"ats-aggregator/pkg/models"
)

const boardJSON = `{
  "jobs": [
    {
      "id": 4012,
      "title": "Backend Engineer",
      "absolute_url": "https://boards.greenhouse.io/acme/jobs/4012",
      "updated_at": "2024-05-04T09:00:00-04:00",
      "first_published": "2024-05-01T09:00:00-04:00",
      "company_name": "Acme",
      "location": {"name": "Remote - US"},
      "departments": [{"name": "Engineering"}],
      "metadata": [{"name": "Employment Type", "value": "Full-time"}],
      "content": "&lt;p&gt;Build &amp;amp; run APIs.&lt;/p&gt;"
    },
    {
      "id": 4013,
      "title": "Account Executive",
      "absolute_url": "https://boards.greenhouse.io/acme/jobs/4013",
      "updated_at": "2024-05-02T09:00:00Z",
      "location": {"name": "London"},
      "departments": [{"name": "Sales"}]
    },
    {"id": 0, "title": "broken"}
  ]
}`

func newSource(t *testing.T, baseURL string, boards ...string) sources.Source {
	t.Helper()
	deps, _ := sourcestest.Deps(nil)
	src, err := New("greenhouse", config.SourceConfig{Enabled: true, BoardIDs: boards, BaseURL: baseURL}, deps)
	require.NoError(t, err)
	return src
}

func TestSearch_NormalizesBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boards/acme/jobs", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("content"))
		_, _ = w.Write([]byte(boardJSON))
	}))
	defer server.Close()

	postings, err := newSource(t, server.URL, "acme").Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, postings, 2, "incomplete jobs are dropped")

	p := postings[0]
	assert.Equal(t, "4012", p.SourceID)
	assert.Equal(t, "greenhouse", p.Source)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, "Remote - US", p.Location)
	assert.True(t, p.IsRemote())
	assert.Equal(t, "Engineering", p.Department)
	assert.Equal(t, "Full-time", p.EmploymentType)
	assert.Equal(t, "Build & run APIs.", p.Description)
	assert.Equal(t, "2024-05-01T13:00:00Z", p.PostedDate.Format("2006-01-02T15:04:05Z07:00"))
	require.NotNil(t, p.LastUpdated)

	assert.Equal(t, "acme", postings[1].Company, "board id stands in for a missing company name")
	assert.Equal(t, "2024-05-02T09:00:00Z", postings[1].PostedDate.Format("2006-01-02T15:04:05Z07:00"), "updated_at is the fallback date")
}

func TestSearch_FiltersLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(boardJSON))
	}))
	defer server.Close()

	postings, err := newSource(t, server.URL, "acme").Search(context.Background(), models.SearchCriteria{Keywords: "engineer"})
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "Backend Engineer", postings[0].Title)

	postings, err = newSource(t, server.URL, "acme").Search(context.Background(), models.SearchCriteria{Keywords: "astronaut"})
	require.NoError(t, err)
	assert.NotNil(t, postings)
	assert.Empty(t, postings, "no matches is an empty result, not an error")
}

func TestSearch_MissingBoardIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/boards/gone/jobs" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(boardJSON))
	}))
	defer server.Close()

	postings, err := newSource(t, server.URL, "gone", "acme").Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	assert.Len(t, postings, 2)

	_, err = newSource(t, server.URL, "gone").Search(context.Background(), models.SearchCriteria{})
	assert.Error(t, err, "a source whose only board failed reports the failure")
}

func TestNew_RequiresBoards(t *testing.T) {
	deps, _ := sourcestest.Deps(nil)
	_, err := New("greenhouse", config.SourceConfig{Enabled: true}, deps)
	assert.ErrorIs(t, err, sources.ErrConfiguration)
}
