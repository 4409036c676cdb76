package fetcher

import (
	"context"
	"time"

	"github.com/rshetty/tradescope/internal/types"
)

// Fetcher renders script-driven pages. Implementations hold whatever session
// state is needed across a multi-page scrape; the orchestrator creates one
// Fetcher per scrape and calls Close on every exit path.
type Fetcher interface {
	// Render navigates to url, waits for the network to settle, then waits up
	// to timeout for selector to appear in the DOM. It returns the rendered
	// document, or a *types.FetchError distinguishing navigation failures
	// from selector failures.
	Render(ctx context.Context, url, selector string, timeout time.Duration) (*types.RenderedPage, error)

	// Close releases the underlying browser session and its OS processes.
	Close() error
}

// Factory creates a fresh Fetcher for a single scrape. It exists so tests can
// substitute fixture-returning stubs for a real headless browser.
type Factory func() (Fetcher, error)
