package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
// One instance holds one Chromium process, reused across the pages of a
// single scrape.
type BrowserFetcher struct {
	browser    *rod.Browser
	cfg        *config.ScraperConfig
	logger     *slog.Logger
	useStealth bool
}

// NewBrowserFetcher launches a Chromium instance and connects to it.
func NewBrowserFetcher(cfg *config.ScraperConfig, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:        cfg,
		logger:     logger.With("component", "browser_fetcher"),
		useStealth: cfg.Stealth,
	}

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Debug("browser ready", "stealth", bf.useStealth)
	return bf, nil
}

// launchBrowser starts Chromium with appropriate flags.
func (bf *BrowserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(bf.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	return l.Launch()
}

// Render implements Fetcher. Navigation is bounded by the configured
// navigation timeout; the selector wait by the caller-supplied timeout.
func (bf *BrowserFetcher) Render(ctx context.Context, url, selector string, timeout time.Duration) (*types.RenderedPage, error) {
	start := time.Now()

	page, err := bf.newPage()
	if err != nil {
		return nil, &types.FetchError{URL: url, Kind: types.FetchNavigation, Err: err}
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)

	if ua := bf.cfg.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	navTimeout := bf.cfg.NavigationTimeout
	if err := page.Timeout(navTimeout).Navigate(url); err != nil {
		return nil, &types.FetchError{URL: url, Kind: types.FetchNavigation, Err: err}
	}

	// "Network settled" wait; a slow third-party beacon should not fail the
	// render, so a stability timeout only logs.
	if err := page.Timeout(navTimeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	if timeout <= 0 {
		timeout = bf.cfg.SelectorTimeout
	}
	if _, err := page.Timeout(timeout).Element(selector); err != nil {
		return nil, &types.FetchError{URL: url, Kind: types.FetchSelector, Err: fmt.Errorf("selector %q: %w", selector, err)}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: url, Kind: types.FetchSelector, Err: err}
	}
	if len(html) == 0 {
		return nil, &types.FetchError{URL: url, Kind: types.FetchSelector, Err: types.ErrEmptyDocument}
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("render complete",
		"url", url,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewRenderedPage(finalURL, []byte(html), duration), nil
}

// Close shuts down the browser and its OS process.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// newPage creates a browser tab, with stealth patches when enabled.
func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.useStealth {
		return stealth.Page(bf.browser)
	}
	return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}
