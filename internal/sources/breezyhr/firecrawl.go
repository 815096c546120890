package breezyhr

import (
	"context"
	"time"

	"github.com/mendableai/firecrawl-go"

	"ats-aggregator/internal/errors"
)

type firecrawlSession struct {
	app     *firecrawl.FirecrawlApp
	timeout time.Duration
}

func firecrawlOpener(apiKey, apiURL string, timeout time.Duration) Opener {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return func(context.Context) (Session, error) {
		app, err := firecrawl.NewFirecrawlApp(apiKey, apiURL)
		if err != nil {
			return nil, errors.Wrap(err, "initialize firecrawl")
		}
		return &firecrawlSession{app: app, timeout: timeout}, nil
	}
}

// HTML scrapes pageURL remotely. The SDK call takes no context, so the wait
// is abandoned, not the request, when ctx ends first.
func (f *firecrawlSession) HTML(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	type result struct {
		doc *firecrawl.FirecrawlDocument
		err error
	}
	done := make(chan result, 1)
	go func() {
		doc, err := f.app.ScrapeURL(pageURL, &firecrawl.ScrapeParams{Formats: []string{"html"}})
		done <- result{doc, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", errors.Wrapf(r.err, "firecrawl scrape %s", pageURL)
		}
		if r.doc == nil || r.doc.HTML == "" {
			return "", errors.Newf("firecrawl returned no html for %s", pageURL)
		}
		return r.doc.HTML, nil
	}
}

func (f *firecrawlSession) Close() error { return nil }
