package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestResolveTotalPagesNumberedLinks(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<nav class="pagination">
			<a href="/trades?page=1">1</a>
			<a href="/trades?page=2">2</a>
			<a href="/trades?page=3">3</a>
			<a href="/trades?page=42">42</a>
		</nav>
	</body></html>`)

	if got := ResolveTotalPages(doc); got != 42 {
		t.Errorf("expected 42 pages, got %d", got)
	}
}

func TestResolveTotalPagesLastControlWithoutText(t *testing.T) {
	// The "last" control shows an icon; its page number is only in the href.
	doc := parseDoc(t, `<html><body>
		<div class="pager">
			<a href="?page=2">2</a>
			<a class="last-page" href="?page=87">&raquo;</a>
		</div>
	</body></html>`)

	if got := ResolveTotalPages(doc); got != 87 {
		t.Errorf("expected 87 pages, got %d", got)
	}
}

func TestResolveTotalPagesTextBeatsHref(t *testing.T) {
	// The maximum wins regardless of whether it came from text or URL.
	doc := parseDoc(t, `<html><body>
		<ul class="pagination">
			<li><button class="page-link">120</button></li>
			<li><a class="page-link" href="?page=5">5</a></li>
		</ul>
	</body></html>`)

	if got := ResolveTotalPages(doc); got != 120 {
		t.Errorf("expected 120 pages, got %d", got)
	}
}

func TestResolveTotalPagesNoPagination(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<table><tbody><tr><td>only page</td></tr></tbody></table>
		<a href="/about">About</a>
	</body></html>`)

	if got := ResolveTotalPages(doc); got != 1 {
		t.Errorf("expected 1 page, got %d", got)
	}
}

func TestResolveTotalPagesIgnoresImplausibleNumbers(t *testing.T) {
	// A year rendered inside a pagination-classed footer must not become a
	// page count.
	doc := parseDoc(t, `<html><body>
		<div class="pagination">
			<a href="?page=3">3</a>
			<a href="/archive">2025000</a>
		</div>
	</body></html>`)

	if got := ResolveTotalPages(doc); got != 3 {
		t.Errorf("expected 3 pages, got %d", got)
	}
}

func TestPageURL(t *testing.T) {
	base := "https://example.com/trades?pageSize=96"

	if got := pageURL(base, 1); got != base {
		t.Errorf("page 1 must return the base URL, got %q", got)
	}
	got := pageURL(base, 3)
	if !strings.Contains(got, "page=3") || !strings.Contains(got, "pageSize=96") {
		t.Errorf("expected page=3 with pageSize preserved, got %q", got)
	}
}
