// Package greenhouse searches Greenhouse job boards through the public
// job-board API.
package greenhouse

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
)

const defaultBaseURL = "https://boards-api.greenhouse.io"

type boardResponse struct {
	Jobs []job `json:"jobs"`
}

type job struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	AbsoluteURL    string `json:"absolute_url"`
	UpdatedAt      string `json:"updated_at"`
	FirstPublished string `json:"first_published"`
	CompanyName    string `json:"company_name"`
	Content        string `json:"content"`
	Location       struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
	Metadata []struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	} `json:"metadata"`
}

// Source is the Greenhouse adapter. It holds no per-search state.
type Source struct {
	id      string
	baseURL string
	boards  []string
	client  *sources.HTTPClient
	logger  logging.Logger
	now     func() time.Time
}

// New is the registry constructor. At least one board id is required.
func New(id string, cfg config.SourceConfig, deps sources.Deps) (sources.Source, error) {
	boards := sources.DedupeStrings(cfg.BoardIDs)
	if len(boards) == 0 {
		return nil, sources.Misconfigured(id, "no board ids configured")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Source{
		id:      id,
		baseURL: baseURL,
		boards:  boards,
		client:  sources.NewHTTPClient(id, cfg.RequestsPerMinute, deps.NewExecutor(id), deps),
		logger:  deps.SourceLogger(id),
		now:     time.Now,
	}, nil
}

func (s *Source) ID() string { return s.id }

// Search loads every configured board and filters it locally; the board API
// has no server-side search.
func (s *Source) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Posting, error) {
	postings, err := sources.CollectBoards(ctx, s.logger, s.boards, s.fetchBoard)
	if err != nil {
		return nil, err
	}
	return sources.Filter(criteria, postings), nil
}

func (s *Source) fetchBoard(ctx context.Context, board string) ([]models.Posting, error) {
	endpoint := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", s.baseURL, url.PathEscape(board))

	var resp boardResponse
	if err := s.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	fetchedAt := s.now()
	postings := make([]models.Posting, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if j.ID == 0 || strings.TrimSpace(j.Title) == "" {
			s.logger.Debug("dropping incomplete job", map[string]interface{}{"board": board, "job_id": j.ID})
			continue
		}
		postings = append(postings, s.normalize(board, j, fetchedAt))
	}

	s.logger.Debug("board fetched", map[string]interface{}{"board": board, "jobs": len(postings)})
	return postings, nil
}

func (s *Source) normalize(board string, j job, fetchedAt time.Time) models.Posting {
	description := sources.CleanText(j.Content)

	var departments []string
	for _, d := range j.Departments {
		departments = append(departments, d.Name)
	}

	company := j.CompanyName
	if company == "" {
		company = board
	}

	location := sources.FormatLocation(j.Location.Name)
	remote := sources.DetectRemote(j.Title, j.Location.Name)

	p := models.Posting{
		SourceID:       strconv.FormatInt(j.ID, 10),
		Title:          strings.TrimSpace(j.Title),
		Company:        company,
		Location:       location,
		Department:     strings.Join(sources.DedupeStrings(departments), ", "),
		EmploymentType: metadataString(j, "employment type"),
		Description:    description,
		URL:            j.AbsoluteURL,
		PostedDate:     sources.PostedDate(fetchedAt, j.FirstPublished, j.UpdatedAt),
		Source:         s.id,
		Remote:         sources.Bool(remote),
	}
	if updated, ok := sources.ParseTime(j.UpdatedAt); ok {
		p.LastUpdated = &updated
	}
	return p
}

// metadataString returns a custom field by case-insensitive name.
func metadataString(j job, name string) string {
	for _, m := range j.Metadata {
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		if v, ok := m.Value.(string); ok {
			return v
		}
	}
	return ""
}
