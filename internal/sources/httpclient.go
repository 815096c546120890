package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/retry"
)

const maxResponseBytes = 16 << 20

// HTTPClient performs JSON round trips for one source. Every call goes through
// the source's retrying executor and the shared per-host limiter, and every
// failure comes back as a *retry.UpstreamError.
type HTTPClient struct {
	source    string
	client    *http.Client
	executor  *retry.Executor
	limiter   *RateLimiter
	perMinute int
	userAgent string
	header    http.Header
	basicAuth bool
	username  string
	password  string
}

// NewHTTPClient builds the client an adapter uses for its REST calls.
func NewHTTPClient(source string, perMinute int, executor *retry.Executor, deps Deps) *HTTPClient {
	client := deps.HTTPClient
	if client == nil {
		timeout := 30 * time.Second
		if deps.Config != nil && deps.Config.Scraper.RequestTimeout > 0 {
			timeout = deps.Config.Scraper.RequestTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	userAgent := "ats-aggregator/1.0"
	if deps.Config != nil && deps.Config.Scraper.UserAgent != "" {
		userAgent = deps.Config.Scraper.UserAgent
	}
	return &HTTPClient{
		source:    source,
		client:    client,
		executor:  executor,
		limiter:   deps.Limiter,
		perMinute: perMinute,
		userAgent: userAgent,
		header:    make(http.Header),
	}
}

// SetHeader adds a header to every request, e.g. an API key.
func (c *HTTPClient) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// SetBasicAuth sends basic credentials with every request.
func (c *HTTPClient) SetBasicAuth(username, password string) {
	c.username, c.password = username, password
	c.basicAuth = true
}

// GetJSON fetches rawURL and decodes the body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	return c.executor.Execute(ctx, func(ctx context.Context) error {
		body, err := c.get(ctx, rawURL, "application/json")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return retry.NewTerminal(c.source, "decode "+rawURL, err)
		}
		return nil
	})
}

// GetBody fetches rawURL and returns the raw body.
func (c *HTTPClient) GetBody(ctx context.Context, rawURL, accept string) ([]byte, error) {
	return retry.Do(ctx, c.executor, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, rawURL, accept)
	})
}

// get is a single attempt.
func (c *HTTPClient) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	op := "GET " + rawURL

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, retry.NewTerminal(c.source, op, err)
	}
	host := parsed.Host

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host, c.perMinute); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// an open breaker is a transient condition of the host
			return nil, retry.NewTransient(c.source, op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.NewTerminal(c.source, op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	for k, v := range c.header {
		req.Header[k] = v
	}
	if c.basicAuth {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.recordFailure(host, err)
		return nil, retry.NewTransient(c.source, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		upstream := retry.FromStatus(c.source, op, resp.StatusCode)
		if upstream.Retryable() {
			c.recordFailure(host, upstream)
		}
		return nil, upstream
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure(host, err)
		return nil, retry.NewTransient(c.source, op, errors.Wrap(err, "read body"))
	}

	if c.limiter != nil {
		c.limiter.RecordSuccess(host)
	}
	return body, nil
}

func (c *HTTPClient) recordFailure(host string, err error) {
	if c.limiter != nil {
		c.limiter.RecordFailure(host, err)
	}
}
