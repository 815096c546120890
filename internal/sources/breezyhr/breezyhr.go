// Package breezyhr searches BreezyHR career portals. Listings come from each
// portal's public JSON feed; descriptions and sections are read from the
// rendered posting page.
package breezyhr

import (
	"context"
	"net/url"
	"strings"
	"time"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/retry"
	"ats-aggregator/internal/sources"
	"ats-aggregator/pkg/models"
)

const defaultBaseURL = "https://{company}.breezy.hr"

type position struct {
	ID            string `json:"id"`
	FriendlyID    string `json:"friendly_id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
	Department    string `json:"department"`
	Salary        string `json:"salary"`
	Type          struct {
		Name string `json:"name"`
	} `json:"type"`
	Location struct {
		Name     string `json:"name"`
		City     string `json:"city"`
		IsRemote bool   `json:"is_remote"`
		State    struct {
			Name string `json:"name"`
		} `json:"state"`
		Country struct {
			Name string `json:"name"`
		} `json:"country"`
	} `json:"location"`
	Company struct {
		Name string `json:"name"`
	} `json:"company"`
}

// Source is the BreezyHR adapter. A browser session is opened per Search and
// closed before it returns.
type Source struct {
	id             string
	baseURL        string
	companies      []string
	perMinute      int
	maxDetailPages int
	client         *sources.HTTPClient
	executor       *retry.Executor
	limiter        *sources.RateLimiter
	open           Opener
	logger         logging.Logger
	now            func() time.Time
}

// New is the registry constructor. Company ids are portal subdomains.
func New(id string, cfg config.SourceConfig, deps sources.Deps) (sources.Source, error) {
	companies := sources.DedupeStrings(cfg.CompanyIDs)
	if len(companies) == 0 {
		return nil, sources.Misconfigured(id, "no company ids configured")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.Contains(baseURL, "{company}") {
		return nil, sources.Misconfigured(id, "base url %q has no {company} placeholder", baseURL)
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = config.Default()
	}
	logger := deps.SourceLogger(id)

	executor := deps.NewExecutor(id)
	client := sources.NewHTTPClient(id, cfg.RequestsPerMinute, executor, deps)
	if cfg.APIKey != "" {
		// portals that restrict the feed accept the account token as-is
		client.SetHeader("Authorization", cfg.APIKey)
	}

	return &Source{
		id:             id,
		baseURL:        baseURL,
		companies:      companies,
		perMinute:      cfg.RequestsPerMinute,
		maxDetailPages: appCfg.Scraper.MaxDetailPages,
		client:         client,
		executor:       executor,
		limiter:        deps.Limiter,
		open:           defaultOpener(appCfg, logger),
		logger:         logger,
		now:            time.Now,
	}, nil
}

func (s *Source) ID() string { return s.id }

// Search lists every portal, filters the listing, then enriches up to
// maxDetailPages matches from their posting pages. A posting whose page
// cannot be read is dropped.
func (s *Source) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Posting, error) {
	listed, err := sources.CollectBoards(ctx, s.logger, s.companies, s.fetchCompany)
	if err != nil {
		return nil, err
	}

	matched := sources.Filter(criteria, listed)
	if len(matched) == 0 || s.maxDetailPages <= 0 {
		return matched, nil
	}

	session, err := s.open(ctx)
	if err != nil {
		return nil, retry.NewTransient(s.id, "open page session", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.logger.Warn("failed to close page session", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	out := make([]models.Posting, 0, len(matched))
	for i, p := range matched {
		if i >= s.maxDetailPages {
			out = append(out, p)
			continue
		}

		enriched, err := s.enrich(ctx, session, p)
		if err != nil {
			if sources.IsAuthFailure(err) || ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("dropping posting whose detail page failed", map[string]interface{}{
				"source_id": p.SourceID,
				"url":       p.URL,
				"error":     err.Error(),
			})
			continue
		}
		out = append(out, enriched)
	}
	return out, nil
}

func (s *Source) fetchCompany(ctx context.Context, company string) ([]models.Posting, error) {
	portal := strings.ReplaceAll(s.baseURL, "{company}", url.PathEscape(company))

	var positions []position
	if err := s.client.GetJSON(ctx, portal+"/json", &positions); err != nil {
		return nil, err
	}

	fetchedAt := s.now()
	out := make([]models.Posting, 0, len(positions))
	for _, p := range positions {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			continue
		}
		out = append(out, s.normalize(portal, company, p, fetchedAt))
	}
	return out, nil
}

func (s *Source) normalize(portal, company string, p position, fetchedAt time.Time) models.Posting {
	location := p.Location.Name
	if location == "" {
		location = sources.FormatLocation(p.Location.City, p.Location.State.Name, p.Location.Country.Name)
	}

	link := p.URL
	if link == "" {
		slug := p.FriendlyID
		if slug == "" {
			slug = p.ID
		}
		link = portal + "/p/" + slug
	}

	name := p.Company.Name
	if name == "" {
		name = company
	}

	out := models.Posting{
		SourceID:       p.ID,
		Title:          strings.TrimSpace(p.Name),
		Company:        name,
		Location:       sources.FormatLocation(location),
		Department:     p.Department,
		EmploymentType: p.Type.Name,
		URL:            link,
		PostedDate:     sources.PostedDate(fetchedAt, p.PublishedDate),
		Source:         s.id,
		Remote:         sources.Bool(p.Location.IsRemote || sources.DetectRemote(p.Name, location)),
	}
	if p.Salary != "" {
		out.Salary = &models.Salary{Text: p.Salary}
	}
	return out
}

// enrich renders the posting page through the executor and merges the
// parsed details into a copy of p.
func (s *Source) enrich(ctx context.Context, session Session, p models.Posting) (models.Posting, error) {
	op := "render " + p.URL
	host := ""
	if u, err := url.Parse(p.URL); err == nil {
		host = u.Host
	}

	page, err := retry.Do(ctx, s.executor, func(ctx context.Context) (string, error) {
		if s.limiter != nil && host != "" {
			if err := s.limiter.Wait(ctx, host, s.perMinute); err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return "", retry.NewTransient(s.id, op, err)
			}
		}
		html, err := session.HTML(ctx, p.URL)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			var upstream *retry.UpstreamError
			if errors.As(err, &upstream) {
				return "", err
			}
			return "", retry.NewTransient(s.id, op, err)
		}
		return html, nil
	})
	if err != nil {
		return models.Posting{}, err
	}

	d, err := parseDetails(page)
	if err != nil {
		return models.Posting{}, retry.NewTerminal(s.id, "parse "+p.URL, err)
	}
	return d.apply(p), nil
}
