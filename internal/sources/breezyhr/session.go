package breezyhr

import (
	"context"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
)

// Session renders posting pages for the duration of one Search.
type Session interface {
	HTML(ctx context.Context, pageURL string) (string, error)
	Close() error
}

// Opener starts a Session.
type Opener func(ctx context.Context) (Session, error)

// defaultOpener prefers a local headless browser and falls back to firecrawl
// when the browser cannot start and an API key is configured.
func defaultOpener(cfg *config.Config, logger logging.Logger) Opener {
	browser := browserOpener(cfg.Scraper, logger)
	if cfg.Firecrawl.APIKey == "" {
		return browser
	}
	return withFallback(browser, firecrawlOpener(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL, cfg.Firecrawl.Timeout), logger)
}

func withFallback(primary, secondary Opener, logger logging.Logger) Opener {
	return func(ctx context.Context) (Session, error) {
		session, err := primary(ctx)
		if err == nil {
			return session, nil
		}
		logger.Warn("browser unavailable, falling back to firecrawl", map[string]interface{}{"error": err.Error()})

		fallback, ferr := secondary(ctx)
		if ferr != nil {
			return nil, errors.WithSecondaryError(ferr, err)
		}
		return fallback, nil
	}
}

type browserSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	pageTimeout time.Duration
}

func browserOpener(cfg config.ScraperConfig, logger logging.Logger) Opener {
	return func(ctx context.Context) (Session, error) {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.HeadlessMode).
			NoSandbox(true).
			Set("disable-blink-features", "AutomationControlled").
			Set("disable-gpu").
			Set("disable-dev-shm-usage")
		if chromePath := systemChromePath(); chromePath != "" {
			l = l.Bin(chromePath)
		} else {
			logger.Debug("system Chrome not found, rod will download a browser")
		}
		if cfg.UserAgent != "" {
			l = l.Set("user-agent", cfg.UserAgent)
		}

		controlURL, err := l.Launch()
		if err != nil {
			return nil, errors.Wrap(err, "launch browser")
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			l.Kill()
			return nil, errors.Wrap(err, "connect to browser")
		}

		var page *rod.Page
		if cfg.StealthMode {
			page, err = stealth.Page(browser)
		} else {
			page, err = browser.Page(proto.TargetCreateTarget{})
		}
		if err != nil {
			_ = browser.Close()
			l.Kill()
			return nil, errors.Wrap(err, "open page")
		}

		timeout := cfg.PageTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		return &browserSession{launcher: l, browser: browser, page: page, pageTimeout: timeout}, nil
	}
}

func (b *browserSession) HTML(ctx context.Context, pageURL string) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, b.pageTimeout)
	defer cancel()

	page := b.page.Context(navCtx)
	if err := page.Navigate(pageURL); err != nil {
		return "", errors.Wrapf(err, "navigate to %s", pageURL)
	}
	if err := page.WaitLoad(); err != nil {
		return "", errors.Wrapf(err, "wait for %s", pageURL)
	}
	return page.HTML()
}

func (b *browserSession) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

// systemChromePath finds an installed Chrome or Chromium
func systemChromePath() string {
	for _, env := range []string{"CHROME_BIN", "CHROME_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	for _, p := range []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
