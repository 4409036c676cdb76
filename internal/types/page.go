package types

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RenderedPage holds the fully rendered HTML of a page after client-side
// scripts have run.
type RenderedPage struct {
	// URL is the page address after any redirects.
	URL string

	// Body is the rendered HTML bytes.
	Body []byte

	// FetchedAt is when rendering finished.
	FetchedAt time.Time

	// RenderDuration is how long navigation plus selector-wait took.
	RenderDuration time.Duration

	// doc is a parsed goquery document (lazily loaded).
	doc *goquery.Document

	// root is a parsed html node tree for XPath queries (lazily loaded).
	root *html.Node
}

// NewRenderedPage creates a RenderedPage from raw rendered HTML.
func NewRenderedPage(url string, body []byte, duration time.Duration) *RenderedPage {
	return &RenderedPage{
		URL:            url,
		Body:           body,
		FetchedAt:      time.Now(),
		RenderDuration: duration,
	}
}

// Document returns a parsed goquery document, lazily initializing it.
func (p *RenderedPage) Document() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	p.doc = doc
	return doc, nil
}

// Root returns the parsed html.Node tree for XPath queries, lazily
// initializing it.
func (p *RenderedPage) Root() (*html.Node, error) {
	if p.root != nil {
		return p.root, nil
	}
	root, err := html.Parse(bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	p.root = root
	return root, nil
}
