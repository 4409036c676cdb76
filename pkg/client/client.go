// Package client is a thin consumer of the trade API. It mirrors the
// server's per-day caching so a UI polling it aggressively still produces at
// most one upstream request per source per day.
package client

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/singleflight"

	"github.com/rshetty/tradescope/internal/cache"
	"github.com/rshetty/tradescope/internal/types"
)

// Health is the payload of the server's health endpoint.
type Health struct {
	Status        string `json:"status"`
	LastFetchDate string `json:"lastFetchDate"`
}

type cachedEntry struct {
	dateKey string
	records []types.TradeRecord
}

// Client fetches trade records from a running server.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	entries map[types.Source]*cachedEntry
	group   singleflight.Group

	loc        *time.Location
	cutoffHour int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock substitutes the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger substitutes the logger used for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With("component", "trade_client") }
}

// WithCutoff overrides the reference timezone and cutoff hour used for the
// insider source's day key. It must match the server's configuration or the
// two cache layers will roll over at different moments.
func WithCutoff(loc *time.Location, hour int) Option {
	return func(c *Client) {
		c.loc = loc
		c.cutoffHour = hour
	}
}

// New creates a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	transport := &http.Transport{
		// Decompression is handled below so brotli responses work too.
		DisableCompression: true,
	}
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: transport,
			Timeout:   5 * time.Minute,
		},
		entries:    make(map[types.Source]*cachedEntry),
		cutoffHour: 10,
		now:        time.Now,
		logger:     slog.Default().With("component", "trade_client"),
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	c.loc = loc

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trades returns the day's legislator disclosure records, served from the
// local cache when the day key has not rolled over.
func (c *Client) Trades(ctx context.Context) ([]types.TradeRecord, error) {
	return c.cached(ctx, types.SourceDisclosure, "/trades")
}

// InsiderTrades returns the day's insider filing records.
func (c *Client) InsiderTrades(ctx context.Context) ([]types.TradeRecord, error) {
	return c.cached(ctx, types.SourceInsider, "/insider-trades")
}

// Prefetch warms both local caches, returning the first error encountered.
func (c *Client) Prefetch(ctx context.Context) error {
	if _, err := c.Trades(ctx); err != nil {
		return err
	}
	_, err := c.InsiderTrades(ctx)
	return err
}

// ForceRefresh clears the server's cache as well as the local one, so the
// next fetch re-scrapes.
func (c *Client) ForceRefresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clear-cache", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear-cache: unexpected status %d", resp.StatusCode)
	}

	c.mu.Lock()
	c.entries = make(map[types.Source]*cachedEntry)
	c.mu.Unlock()
	return nil
}

// Health queries the server's health endpoint, bypassing the cache.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) dayKey(src types.Source) string {
	if src == types.SourceInsider {
		return cache.CutoffDayKey(c.now(), c.loc, c.cutoffHour)
	}
	return cache.UTCDayKey(c.now())
}

// cached serves src from the local cache, collapsing concurrent misses for
// the same source into a single request. On a failed refresh the retained
// entry from an earlier day, when present, is served as a degraded fallback
// instead of surfacing the error.
func (c *Client) cached(ctx context.Context, src types.Source, path string) ([]types.TradeRecord, error) {
	key := c.dayKey(src)

	c.mu.RLock()
	e := c.entries[src]
	c.mu.RUnlock()
	if e != nil && e.dateKey == key {
		return e.records, nil
	}

	v, err, _ := c.group.Do(string(src)+"@"+key, func() (any, error) {
		c.mu.RLock()
		e := c.entries[src]
		c.mu.RUnlock()
		if e != nil && e.dateKey == key {
			return e.records, nil
		}

		var records []types.TradeRecord
		if err := c.getJSON(ctx, path, &records); err != nil {
			if e != nil {
				c.logger.Warn("refresh failed, serving stale records",
					"source", src,
					"stale_key", e.dateKey,
					"error", err,
				)
				return e.records, nil
			}
			return nil, err
		}

		c.mu.Lock()
		c.entries[src] = &cachedEntry{dateKey: key, records: records}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.TradeRecord), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if jerr := json.NewDecoder(reader).Decode(&apiErr); jerr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s: %s", http.MethodGet, path, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", http.MethodGet, path, resp.StatusCode)
	}

	return json.NewDecoder(reader).Decode(out)
}

// decompressReader wraps a reader with the decompressor the response's
// Content-Encoding header calls for.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
