// Package ashby searches Ashby job boards through the public posting API.
package ashby

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
)

const defaultBaseURL = "https://api.ashbyhq.com"

var employmentTypes = map[string]string{
	"fulltime":  "Full-time",
	"parttime":  "Part-time",
	"intern":    "Internship",
	"contract":  "Contract",
	"temporary": "Temporary",
}

type boardResponse struct {
	Jobs []job `json:"jobs"`
}

type job struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Department       string `json:"department"`
	Team             string `json:"team"`
	EmploymentType   string `json:"employmentType"`
	Location         string `json:"location"`
	IsRemote         *bool  `json:"isRemote"`
	IsListed         *bool  `json:"isListed"`
	PublishedAt      string `json:"publishedAt"`
	JobURL           string `json:"jobUrl"`
	ApplyURL         string `json:"applyUrl"`
	DescriptionHTML  string `json:"descriptionHtml"`
	DescriptionPlain string `json:"descriptionPlain"`
	Address          struct {
		PostalAddress struct {
			Locality string `json:"addressLocality"`
			Region   string `json:"addressRegion"`
			Country  string `json:"addressCountry"`
		} `json:"postalAddress"`
	} `json:"address"`
	Compensation *struct {
		Summary    string `json:"compensationTierSummary"`
		Components []struct {
			Type     string  `json:"compensationType"`
			Interval string  `json:"interval"`
			Currency string  `json:"currencyCode"`
			Min      float64 `json:"minValue"`
			Max      float64 `json:"maxValue"`
		} `json:"summaryComponents"`
	} `json:"compensation"`
}

// Source is the Ashby adapter.
type Source struct {
	id      string
	baseURL string
	boards  []string
	client  *sources.HTTPClient
	logger  logging.Logger
	now     func() time.Time
}

// New is the registry constructor. Board ids are the organization's job
// board names, as in jobs.ashbyhq.com/{board}.
func New(id string, cfg config.SourceConfig, deps sources.Deps) (sources.Source, error) {
	boards := sources.DedupeStrings(append(append([]string(nil), cfg.BoardIDs...), cfg.CompanyIDs...))
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

func (s *Source) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Posting, error) {
	postings, err := sources.CollectBoards(ctx, s.logger, s.boards, s.fetchBoard)
	if err != nil {
		return nil, err
	}
	return sources.Filter(criteria, postings), nil
}

func (s *Source) fetchBoard(ctx context.Context, board string) ([]models.Posting, error) {
	endpoint := fmt.Sprintf("%s/posting-api/job-board/%s?includeCompensation=true", s.baseURL, url.PathEscape(board))

	var resp boardResponse
	if err := s.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	fetchedAt := s.now()
	out := make([]models.Posting, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if j.ID == "" || strings.TrimSpace(j.Title) == "" {
			continue
		}
		if j.IsListed != nil && !*j.IsListed {
			continue
		}
		out = append(out, s.normalize(board, j, fetchedAt))
	}
	return out, nil
}

func (s *Source) normalize(board string, j job, fetchedAt time.Time) models.Posting {
	description := strings.TrimSpace(j.DescriptionPlain)
	if description == "" {
		description = sources.CleanText(j.DescriptionHTML)
	}

	location := j.Location
	if location == "" {
		a := j.Address.PostalAddress
		location = sources.FormatLocation(a.Locality, a.Region, a.Country)
	}

	remote := sources.DetectRemote(j.Title, j.Location)
	if j.IsRemote != nil {
		remote = *j.IsRemote
	}

	department := j.Department
	if department == "" {
		department = j.Team
	}

	link := j.JobURL
	if link == "" {
		link = j.ApplyURL
	}

	return models.Posting{
		SourceID:       j.ID,
		Title:          strings.TrimSpace(j.Title),
		Company:        board,
		Location:       sources.FormatLocation(location),
		Department:     department,
		EmploymentType: employmentType(j.EmploymentType),
		Description:    description,
		URL:            link,
		PostedDate:     sources.PostedDate(fetchedAt, j.PublishedAt),
		Source:         s.id,
		Remote:         sources.Bool(remote),
		Salary:         salary(j),
	}
}

func employmentType(raw string) string {
	if t, ok := employmentTypes[strings.ToLower(raw)]; ok {
		return t
	}
	return raw
}

// salary uses the first salary component and keeps the tier summary as text.
func salary(j job) *models.Salary {
	c := j.Compensation
	if c == nil {
		return nil
	}
	out := &models.Salary{Text: c.Summary}
	for _, comp := range c.Components {
		if !strings.EqualFold(comp.Type, "salary") {
			continue
		}
		out.Min = sources.Float(comp.Min)
		out.Max = sources.Float(comp.Max)
		out.Currency = comp.Currency
		out.Type = sources.SalaryPeriod(comp.Interval)
		break
	}
	if out.Text == "" && out.Min == nil && out.Max == nil {
		return nil
	}
	return out
}
