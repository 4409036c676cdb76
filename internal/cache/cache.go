// Package cache holds the last successful scrape result per source, keyed by
// a cache-date, with single-flight protection against duplicate concurrent
// scrapes.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rshetty/tradescope/internal/config"
	"github.com/rshetty/tradescope/internal/types"
)

// State describes a cache entry relative to the current cache-date key.
type State int

const (
	// Empty means no payload has ever been produced for the source.
	Empty State = iota

	// Fresh means the stored key matches the current cache-date key.
	Fresh

	// Stale means the key has rolled over; the payload is still servable as
	// a fallback if a fresh re-scrape fails.
	Stale
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// ScrapeFunc produces a fresh payload for the given cache-date key.
type ScrapeFunc func(ctx context.Context, dateKey string) (*types.ScrapeResult, error)

type entry struct {
	dateKey string
	payload *types.ScrapeResult
}

// DailyCache is an explicit service object owning the per-source cache map
// and the single-flight group. Constructed once and passed by reference to
// request handlers; there is no ambient global state.
type DailyCache struct {
	mu      sync.RWMutex
	entries map[types.Source]*entry
	group   singleflight.Group

	loc        *time.Location
	cutoffHour int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures the DailyCache.
type Option func(*DailyCache)

// WithClock substitutes the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *DailyCache) { c.now = now }
}

// New creates a DailyCache using the configured reference timezone and
// cutoff hour for the insider source's day key.
func New(cfg *config.CacheConfig, logger *slog.Logger, opts ...Option) (*DailyCache, error) {
	loc, err := time.LoadLocation(cfg.ReferenceTimezone)
	if err != nil {
		return nil, err
	}

	c := &DailyCache{
		entries:    make(map[types.Source]*entry),
		loc:        loc,
		cutoffHour: cfg.CutoffHour,
		now:        time.Now,
		logger:     logger.With("component", "daily_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DayKey computes the current cache-date key for a source.
func (c *DailyCache) DayKey(src types.Source) string {
	if src == types.SourceInsider {
		return CutoffDayKey(c.now(), c.loc, c.cutoffHour)
	}
	return UTCDayKey(c.now())
}

// Lookup returns the stored payload for a source and its state relative to
// the current cache-date key.
func (c *DailyCache) Lookup(src types.Source) (*types.ScrapeResult, State) {
	c.mu.RLock()
	e := c.entries[src]
	c.mu.RUnlock()

	if e == nil {
		return nil, Empty
	}
	if e.dateKey == c.DayKey(src) {
		return e.payload, Fresh
	}
	return e.payload, Stale
}

// GetOrScrape returns a fresh payload for the source, scraping at most once
// per source concurrently: callers that find a re-scrape already in flight
// attach to it and receive the same result. On scrape failure the existing
// entry is never overwritten; a stale payload, when present, is served as a
// degraded fallback instead of an error.
func (c *DailyCache) GetOrScrape(ctx context.Context, src types.Source, scrape ScrapeFunc) (*types.ScrapeResult, error) {
	key := c.DayKey(src)

	if res, state := c.Lookup(src); state == Fresh {
		return res, nil
	}

	v, err, shared := c.group.Do(string(src)+"@"+key, func() (any, error) {
		// A caller that queued behind an in-flight scrape sees its result
		// through the shared flight; re-check in case the flight we joined
		// already refreshed the entry.
		if res, state := c.Lookup(src); state == Fresh {
			return res, nil
		}

		res, err := scrape(ctx, key)
		if err != nil {
			if stale, state := c.Lookup(src); state == Stale {
				c.logger.Warn("scrape failed, serving stale payload",
					"source", src,
					"stale_key", stale.CacheDateKey,
					"error", err,
				)
				return stale, nil
			}
			return nil, err
		}

		c.mu.Lock()
		c.entries[src] = &entry{dateKey: key, payload: res}
		c.mu.Unlock()

		c.logger.Info("cache refreshed",
			"source", src,
			"date_key", key,
			"records", len(res.Records),
		)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("attached to in-flight scrape", "source", src, "date_key", key)
	}
	return v.(*types.ScrapeResult), nil
}

// Clear unconditionally resets all entries to Empty.
func (c *DailyCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[types.Source]*entry)
	c.mu.Unlock()
	c.logger.Info("cache cleared")
}

// LastFetchDate returns the most recent successful fetch time across all
// sources, as an ISO date, or "" when nothing has been fetched.
func (c *DailyCache) LastFetchDate() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var latest time.Time
	for _, e := range c.entries {
		if e.payload != nil && e.payload.FetchedAt.After(latest) {
			latest = e.payload.FetchedAt
		}
	}
	if latest.IsZero() {
		return ""
	}
	return latest.UTC().Format(dayKeyLayout)
}
