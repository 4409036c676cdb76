package scrape

import (
	"net/url"
	"strconv"

	"github.com/rshetty/tradescope/internal/types"
)

// Strategy binds one scraped origin to its extraction rules. Both strategies
// produce the same output shape so everything downstream of extraction is
// source-agnostic.
type Strategy interface {
	// Source identifies the origin this strategy scrapes.
	Source() types.Source

	// PageURL returns the address of the n-th result page (1-based).
	PageURL(page int) string

	// WaitSelector is the content selector the fetcher must wait for before
	// the page counts as rendered.
	WaitSelector() string

	// ExtractPage extracts all candidate records from a rendered page.
	// Individual row failures are dropped internally; only document-level
	// failures surface as errors.
	ExtractPage(pg *types.RenderedPage) ([]types.TradeRecord, error)
}

// pageURL appends a page parameter to a base URL for pages past the first.
func pageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
