package scrape

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxPlausiblePages guards against parsing an unrelated large number (a
// dollar amount, a year) out of a control that only looked like pagination.
const maxPlausiblePages = 10000

// ResolveTotalPages determines how many result pages exist from a rendered
// first page. The count is not exposed as a discrete field anywhere, so this
// is deliberately a maximum-over-heuristics strategy rather than a
// single-selector lookup: every pagination-looking anchor/button contributes
// a candidate from its visible text and from a page parameter in its target
// URL, and any "last page" control contributes its target page, with the
// maximum winning. No pagination controls means a single-page result.
func ResolveTotalPages(doc *goquery.Document) int {
	max := 1
	consider := func(n int, ok bool) {
		if ok && n > max && n <= maxPlausiblePages {
			max = n
		}
	}

	doc.Find("a, button").Each(func(_ int, sel *goquery.Selection) {
		if !looksLikePagination(sel) {
			return
		}
		consider(pageFromText(sel.Text()))
		if href, ok := sel.Attr("href"); ok {
			consider(pageFromURL(href))
		}
	})

	// "Last page" controls often show an icon instead of a number; fold in
	// their target page explicitly.
	doc.Find(`a[class*="last"], [class*="last"] a, a[rel="last"], a[aria-label*="ast page"]`).Each(func(_ int, sel *goquery.Selection) {
		consider(pageFromText(sel.Text()))
		if href, ok := sel.Attr("href"); ok {
			consider(pageFromURL(href))
		}
	})

	return max
}

// looksLikePagination reports whether an element plausibly belongs to a
// pagination control: it targets an explicit page parameter, or it (or an
// ancestor) carries a pagination-ish class.
func looksLikePagination(sel *goquery.Selection) bool {
	if href, ok := sel.Attr("href"); ok && strings.Contains(href, "page=") {
		return true
	}
	for node := sel; node.Length() > 0; node = node.Parent() {
		cls, _ := node.Attr("class")
		cls = strings.ToLower(cls)
		if strings.Contains(cls, "pagination") || strings.Contains(cls, "pager") || strings.Contains(cls, "page-link") {
			return true
		}
		if goquery.NodeName(node) == "body" {
			break
		}
	}
	return false
}

// pageFromText reads a page number directly from a control's visible text.
func pageFromText(text string) (int, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// pageFromURL reads a page=<n> parameter from a control's target URL.
func pageFromURL(href string) (int, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return 0, false
	}
	for _, param := range []string{"page", "p"} {
		if raw := u.Query().Get(param); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
				return n, true
			}
		}
	}
	return 0, false
}
