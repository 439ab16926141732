// Package extract locates attachment download links on announcement detail
// pages. Site-specific strategies are keyed by host, with a generic
// selector-based fallback for unknown portals.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one discovered attachment download link.
type Link struct {
	URL  string // absolute
	Text string // anchor text, the best pre-download filename candidate
}

// Strategy pairs a host-matcher predicate with an extraction function.
type Strategy struct {
	Name    string
	Match   func(host string) bool
	Extract func(doc *goquery.Document) []candidate
}

// candidate is a raw, possibly relative, link found by a strategy.
type candidate struct {
	href string
	text string
}

// Extractor dispatches detail pages to extraction strategies.
type Extractor struct {
	strategies []Strategy
	fallback   Strategy
}

// New creates an Extractor with the built-in portal strategies registered.
// Parameters: none.
// Returns:
//   - *Extractor: extractor with bizinfo, k-startup, and generic strategies.
func New() *Extractor {
	return &Extractor{
		strategies: []Strategy{bizinfoStrategy(), kstartupStrategy()},
		fallback:   genericStrategy(),
	}
}

// Register adds a site-specific strategy ahead of the generic fallback.
func (e *Extractor) Register(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// AttachmentLinks finds attachment download links in a detail page.
// Relative hrefs are resolved against the page's own URL, not the crawl
// root, and duplicates are collapsed preserving first-seen order.
// Parameters:
//   - pageHTML: raw detail-page document.
//   - pageURL: the URL the document was fetched from.
// Returns:
//   - []Link: deduplicated absolute links.
//   - error: non-nil when the page URL or document cannot be parsed.
func (e *Extractor) AttachmentLinks(pageHTML []byte, pageURL string) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	var raw []candidate
	for _, s := range e.strategies {
		if s.Match(base.Host) {
			raw = s.Extract(doc)
			break
		}
	}
	if len(raw) == 0 {
		raw = e.fallback.Extract(doc)
	}

	seen := make(map[string]bool, len(raw))
	links := make([]Link, 0, len(raw))
	for _, c := range raw {
		href := strings.TrimSpace(c.href)
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			continue
		}
		seen[abs] = true
		links = append(links, Link{URL: abs, Text: strings.TrimSpace(c.text)})
	}
	return links, nil
}

func collect(doc *goquery.Document, selector string) []candidate {
	var out []candidate
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		out = append(out, candidate{href: href, text: sel.Text()})
	})
	return out
}
