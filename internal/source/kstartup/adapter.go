// Package kstartup crawls the K-Startup (창업지원포털) announcement board.
package kstartup

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyunsoo/bizharvest/internal/fetch"
	"github.com/hyunsoo/bizharvest/internal/source"
)

const (
	PortalID   = "kstartup"
	PortalName = "K-Startup"

	// Board of currently open announcements.
	listPath = "/web/contents/bizpbanc-ongoing.do"
)

// Adapter implements the Portal interface for K-Startup.
// Unlike Bizinfo's table, the listing is a card list: each li carries a
// title anchor plus labeled spans for organization, region, and date.
type Adapter struct {
	baseURL string
	client  *fetch.Client
}

// NewAdapter creates a K-Startup portal adapter.
// Parameters:
//   - baseURL: portal root, e.g. https://www.k-startup.go.kr.
//   - client: shared transport client.
// Returns:
//   - *Adapter: adapter instance.
func NewAdapter(baseURL string, client *fetch.Client) *Adapter {
	return &Adapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// ID returns the unique identifier for this portal
func (a *Adapter) ID() string {
	return PortalID
}

// Name returns a human-readable name for this portal
func (a *Adapter) Name() string {
	return PortalName
}

// BaseURL returns the portal's root URL
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

// FetchPage fetches and parses one listing page.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - page: 1-based page index.
// Returns:
//   - []source.ListingItem: parsed announcement rows.
//   - error: non-nil if the fetch or parse fails.
func (a *Adapter) FetchPage(ctx context.Context, page int) ([]source.ListingItem, error) {
	pageURL := fmt.Sprintf("%s%s?page=%d", a.baseURL, listPath, page)

	body, err := a.client.Fetch(ctx, pageURL, fetch.KindPage, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page %d: %w", page, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page %d: %w", page, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL: %w", err)
	}

	var items []source.ListingItem
	doc.Find("ul.notice_wrap li.notice, li.notice").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.tit, a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		detail := base.ResolveReference(ref)

		items = append(items, source.ListingItem{
			ExternalID:   detail.Query().Get("pbancSn"),
			Title:        strings.TrimSpace(link.Text()),
			Organization: strings.TrimSpace(card.Find("span.organ").First().Text()),
			Region:       strings.TrimSpace(card.Find("span.region").First().Text()),
			Category:     strings.TrimSpace(card.Find("span.category").First().Text()),
			DetailURL:    detail.String(),
			PostedAt:     source.ParseDate(card.Find("span.date").First().Text()),
		})
	})

	return items, nil
}
