package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rshetty/tradescope/internal/cache"
	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/fetcher"
	"github.com/rshetty/tradescope/internal/storage"
	"github.com/rshetty/tradescope/internal/types"
)

// Orchestrator runs full scrape passes and serves their results through the
// daily cache. One orchestrator serves both sources; each scrape pass gets
// its own browser session, closed on every exit path.
type Orchestrator struct {
	cfg        *config.Config
	cache      *cache.DailyCache
	newFetcher fetcher.Factory
	strategies map[types.Source]Strategy
	archive    storage.Storage
	logger     *slog.Logger
	now        func() time.Time
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithArchive attaches an optional archive sink for successful results.
func WithArchive(s storage.Storage) OrchestratorOption {
	return func(o *Orchestrator) { o.archive = s }
}

// WithFetcherFactory substitutes the browser factory, for tests.
func WithFetcherFactory(f fetcher.Factory) OrchestratorOption {
	return func(o *Orchestrator) { o.newFetcher = f }
}

// WithClock substitutes the wall clock, for tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the two source strategies to the daily cache.
func NewOrchestrator(cfg *config.Config, dc *cache.DailyCache, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg:   cfg,
		cache: dc,
		newFetcher: func() (fetcher.Fetcher, error) {
			return fetcher.NewBrowserFetcher(&cfg.Scraper, logger)
		},
		strategies: map[types.Source]Strategy{
			types.SourceDisclosure: NewDisclosureExtractor(cfg.Sources.Disclosure.URL, logger),
			types.SourceInsider:    NewInsiderExtractor(cfg.Sources.Insider.URL, logger),
		},
		logger: logger.With("component", "orchestrator"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Trades returns the current day's records for a source, scraping on demand.
// Concurrent callers for the same source share one in-flight scrape.
func (o *Orchestrator) Trades(ctx context.Context, src types.Source) (*types.ScrapeResult, error) {
	strat, ok := o.strategies[src]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownSource, src)
	}
	return o.cache.GetOrScrape(ctx, src, func(ctx context.Context, dateKey string) (*types.ScrapeResult, error) {
		return o.scrape(ctx, strat, dateKey)
	})
}

// ClearCache drops all cached payloads so the next request re-scrapes.
func (o *Orchestrator) ClearCache() {
	o.cache.Clear()
}

// LastFetchDate reports the date of the most recent successful scrape across
// both sources, or "" when nothing has been fetched yet.
func (o *Orchestrator) LastFetchDate() string {
	return o.cache.LastFetchDate()
}

// Prefetch warms both source caches. Failures are logged, not returned; a
// cold cache simply stays cold until the next request.
func (o *Orchestrator) Prefetch(ctx context.Context) {
	for src := range o.strategies {
		if _, err := o.Trades(ctx, src); err != nil {
			o.logger.Warn("prefetch failed", "source", src, "error", err)
		}
	}
}

// scrape runs one full pass for a source: render page 1, resolve the page
// count, walk the remaining pages sequentially, then filter, dedup, and
// assign ids. Any page-level failure aborts the whole pass.
func (o *Orchestrator) scrape(ctx context.Context, strat Strategy, dateKey string) (*types.ScrapeResult, error) {
	src := strat.Source()
	start := o.now()
	o.logger.Info("scrape starting", "source", src, "date_key", dateKey)

	f, err := o.newFetcher()
	if err != nil {
		return nil, fmt.Errorf("start fetcher: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			o.logger.Warn("fetcher close failed", "source", src, "error", cerr)
		}
	}()

	first, err := f.Render(ctx, strat.PageURL(1), strat.WaitSelector(), o.cfg.Scraper.SelectorTimeout)
	if err != nil {
		return nil, pageErr(err, 1)
	}

	totalPages := o.pageCount(first)
	o.logger.Debug("page count resolved", "source", src, "pages", totalPages)

	records, err := strat.ExtractPage(first)
	if err != nil {
		return nil, pageErr(err, 1)
	}

	for page := 2; page <= totalPages; page++ {
		if o.cfg.Scraper.PageDelay > 0 {
			select {
			case <-time.After(o.cfg.Scraper.PageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		pg, err := f.Render(ctx, strat.PageURL(page), strat.WaitSelector(), o.cfg.Scraper.SelectorTimeout)
		if err != nil {
			return nil, pageErr(err, page)
		}
		pageRecords, err := strat.ExtractPage(pg)
		if err != nil {
			return nil, pageErr(err, page)
		}
		records = append(records, pageRecords...)
	}

	raw := len(records)
	records = Dedupe(ApplyFilter(records, o.now()))
	for i := range records {
		records[i].ID = fmt.Sprintf("%s-%d", src, i+1)
	}

	res := &types.ScrapeResult{
		Source:       src,
		Records:      records,
		FetchedAt:    o.now(),
		CacheDateKey: dateKey,
		Pages:        totalPages,
	}

	o.logger.Info("scrape finished",
		"source", src,
		"pages", totalPages,
		"raw_records", raw,
		"records", len(records),
		"duration", o.now().Sub(start))

	if o.archive != nil {
		if err := o.archive.Store(res); err != nil {
			// The archive is a side channel; its failures never cost
			// the caller a successful scrape.
			o.logger.Error("archive store failed", "source", src, "error", err)
		}
	}
	return res, nil
}

// pageCount reads the pagination controls from the first rendered page and
// clamps the result to the configured ceiling.
func (o *Orchestrator) pageCount(first *types.RenderedPage) int {
	doc, err := first.Document()
	if err != nil {
		return 1
	}
	total := ResolveTotalPages(doc)
	if o.cfg.Scraper.MaxPages > 0 && total > o.cfg.Scraper.MaxPages {
		total = o.cfg.Scraper.MaxPages
	}
	return total
}

// pageErr annotates a fetch error with the page number it occurred on.
func pageErr(err error, page int) error {
	var fe *types.FetchError
	if errors.As(err, &fe) {
		fe.Page = page
		return fe
	}
	return fmt.Errorf("page %d: %w", page, err)
}
