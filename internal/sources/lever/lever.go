// Package lever searches company postings through the Lever postings API.
package lever

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

const defaultBaseURL = "https://api.lever.co"

type posting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	ApplyURL         string `json:"applyUrl"`
	CreatedAt        int64  `json:"createdAt"`
	UpdatedAt        int64  `json:"updatedAt"`
	WorkplaceType    string `json:"workplaceType"`
	Description      string `json:"description"`
	DescriptionPlain string `json:"descriptionPlain"`
	Categories       struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Department string `json:"department"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	Lists []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	} `json:"lists"`
	SalaryRange *struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
		Interval string  `json:"interval"`
	} `json:"salaryRange"`
}

// Source is the Lever adapter.
type Source struct {
	id        string
	baseURL   string
	companies []string
	client    *sources.HTTPClient
	logger    logging.Logger
	now       func() time.Time
}

// New is the registry constructor. At least one company id is required.
func New(id string, cfg config.SourceConfig, deps sources.Deps) (sources.Source, error) {
	companies := sources.DedupeStrings(cfg.CompanyIDs)
	if len(companies) == 0 {
		return nil, sources.Misconfigured(id, "no company ids configured")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := sources.NewHTTPClient(id, cfg.RequestsPerMinute, deps.NewExecutor(id), deps)
	if cfg.APIKey != "" {
		// unlisted postings need the company's API key as the basic-auth user
		client.SetBasicAuth(cfg.APIKey, "")
	}

	return &Source{
		id:        id,
		baseURL:   baseURL,
		companies: companies,
		client:    client,
		logger:    deps.SourceLogger(id),
		now:       time.Now,
	}, nil
}

func (s *Source) ID() string { return s.id }

// Search loads every configured company and filters locally.
func (s *Source) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Posting, error) {
	postings, err := sources.CollectBoards(ctx, s.logger, s.companies, s.fetchCompany)
	if err != nil {
		return nil, err
	}
	return sources.Filter(criteria, postings), nil
}

func (s *Source) fetchCompany(ctx context.Context, company string) ([]models.Posting, error) {
	endpoint := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.baseURL, url.PathEscape(company))

	var resp []posting
	if err := s.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	fetchedAt := s.now()
	out := make([]models.Posting, 0, len(resp))
	for _, p := range resp {
		if p.ID == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		out = append(out, s.normalize(company, p, fetchedAt))
	}
	return out, nil
}

func (s *Source) normalize(company string, p posting, fetchedAt time.Time) models.Posting {
	description := strings.TrimSpace(p.DescriptionPlain)
	if description == "" {
		description = sources.CleanText(p.Description)
	}

	department := p.Categories.Team
	if department == "" {
		department = p.Categories.Department
	}

	workplace := strings.ToLower(p.WorkplaceType)
	remote := workplace == "remote" || (workplace != "onsite" && workplace != "hybrid" &&
		sources.DetectRemote(p.Text, p.Categories.Location))

	link := p.HostedURL
	if link == "" {
		link = p.ApplyURL
	}

	out := models.Posting{
		SourceID:       p.ID,
		Title:          strings.TrimSpace(p.Text),
		Company:        company,
		Location:       sources.FormatLocation(p.Categories.Location),
		Department:     department,
		EmploymentType: p.Categories.Commitment,
		Description:    description,
		URL:            link,
		PostedDate:     sources.PostedDate(fetchedAt, millis(p.CreatedAt)),
		Source:         s.id,
		Remote:         sources.Bool(remote),
	}
	if updated, ok := sources.ParseTime(millis(p.UpdatedAt)); ok {
		out.LastUpdated = &updated
	}

	for _, list := range p.Lists {
		items := sources.ListItems(list.Content)
		switch section(list.Text) {
		case "requirements":
			out.Requirements = append(out.Requirements, items...)
		case "responsibilities":
			out.Responsibilities = append(out.Responsibilities, items...)
		case "qualifications":
			out.Qualifications = append(out.Qualifications, items...)
		case "benefits":
			out.Benefits = append(out.Benefits, items...)
		}
	}

	if r := p.SalaryRange; r != nil && (r.Min > 0 || r.Max > 0) {
		out.Salary = &models.Salary{
			Min:      sources.Float(r.Min),
			Max:      sources.Float(r.Max),
			Currency: r.Currency,
			Type:     sources.SalaryPeriod(r.Interval),
		}
	}
	return out
}

func millis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return strconv.FormatInt(ms, 10)
}

// section classifies a list heading such as "What you'll do" or "Perks".
func section(heading string) string {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "benefit") || strings.Contains(h, "perk") || strings.Contains(h, "we offer"):
		return "benefits"
	case strings.Contains(h, "responsib") || strings.Contains(h, "you'll do") || strings.Contains(h, "you will do"):
		return "responsibilities"
	case strings.Contains(h, "qualification") || strings.Contains(h, "nice to have") || strings.Contains(h, "bonus"):
		return "qualifications"
	case strings.Contains(h, "requirement") || strings.Contains(h, "you have") || strings.Contains(h, "you bring") || strings.Contains(h, "looking for"):
		return "requirements"
	default:
		return ""
	}
}
